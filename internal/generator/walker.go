// Package generator builds race rounds by walking the wiki link graph.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"wiki-race/internal/wiki"
)

// ErrWalkExhausted means the walk could not reach the requested length
// within its attempt budget. Callers retry from another seed.
var ErrWalkExhausted = errors.New("walk exhausted")

// LinkSource lists main-namespace neighbours of a page.
type LinkSource interface {
	Links(ctx context.Context, title string, dir wiki.Direction) ([]string, error)
}

type Walker struct {
	links LinkSource
	mu    sync.Mutex
	rng   *rand.Rand
}

func NewWalker(links LinkSource, rng *rand.Rand) *Walker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Walker{links: links, rng: rng}
}

// Walk takes steps random hops from start and returns the final page and
// the visited path [start, ..., end]. Forward hops follow outbound links;
// Backward hops follow inbound links, so the reversed path is a forward
// route ending at start. Pages never repeat within a path, however their
// titles are spelled.
func (w *Walker) Walk(ctx context.Context, start string, steps int, dir wiki.Direction) (string, []string, error) {
	if steps <= 0 {
		return start, []string{start}, nil
	}
	visited := map[string]struct{}{wiki.NormalizeTitle(start): {}}
	stack := make([]string, 0, steps)
	current := start
	for iterations := 0; len(stack) != steps && iterations < 2*steps; iterations++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		candidate, ok, err := w.randomLink(ctx, current, dir)
		if err != nil && !errors.Is(err, wiki.ErrPageNotFound) {
			return "", nil, err
		}
		if !ok {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			current = start
			if len(stack) > 0 {
				current = stack[len(stack)-1]
			}
			continue
		}
		key := wiki.NormalizeTitle(candidate)
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}
		stack = append(stack, candidate)
		current = candidate
	}
	if len(stack) != steps {
		return "", nil, fmt.Errorf("%w: %d of %d steps from %q", ErrWalkExhausted, len(stack), steps, start)
	}
	path := make([]string, 0, steps+1)
	path = append(path, start)
	path = append(path, stack...)
	return current, path, nil
}

func (w *Walker) randomLink(ctx context.Context, title string, dir wiki.Direction) (string, bool, error) {
	links, err := w.links.Links(ctx, title, dir)
	if err != nil {
		return "", false, err
	}
	if len(links) == 0 {
		return "", false, nil
	}
	w.mu.Lock()
	idx := w.rng.IntN(len(links))
	w.mu.Unlock()
	return links[idx], true, nil
}
