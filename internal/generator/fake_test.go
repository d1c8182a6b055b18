package generator

import (
	"context"
	"math/rand/v2"
	"sync"

	"wiki-race/internal/wiki"
)

// scriptedGraph answers Links from per-title scripts. Each call consumes the
// next response; the last one repeats. Single-element responses keep walks
// deterministic regardless of the rng.
type scriptedGraph struct {
	mu       sync.Mutex
	forward  map[string][][]string
	backward map[string][][]string
	errs     map[string]error
	calls    map[string]int
	random   []string
	randomAt int
}

func newScriptedGraph() *scriptedGraph {
	return &scriptedGraph{
		forward:  map[string][][]string{},
		backward: map[string][][]string{},
		errs:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (g *scriptedGraph) chain(titles ...string) *scriptedGraph {
	for i := 0; i+1 < len(titles); i++ {
		g.forward[titles[i]] = [][]string{{titles[i+1]}}
	}
	return g
}

func (g *scriptedGraph) Links(ctx context.Context, title string, dir wiki.Direction) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.errs[title]; ok {
		return nil, err
	}
	scripts := g.forward
	if dir == wiki.Backward {
		scripts = g.backward
	}
	responses := scripts[title]
	if len(responses) == 0 {
		return nil, nil
	}
	key := dir.String() + ":" + title
	idx := g.calls[key]
	g.calls[key]++
	if idx >= len(responses) {
		idx = len(responses) - 1
	}
	return append([]string(nil), responses[idx]...), nil
}

func (g *scriptedGraph) RandomPage(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.random) == 0 {
		return "", wiki.ErrPageNotFound
	}
	idx := g.randomAt
	if idx >= len(g.random) {
		idx = len(g.random) - 1
	}
	g.randomAt++
	return g.random[idx], nil
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}
