package generator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"wiki-race/internal/wiki"
)

// ErrRoundGenerationFailed is returned once every attempt has failed.
var ErrRoundGenerationFailed = errors.New("round generation failed")

const defaultAttempts = 10

// Round is a generated race: solution runs from Start to End inclusive.
type Round struct {
	Start    string
	End      string
	Solution []string
}

// SeedSource supplies the page a generation attempt starts walking from.
type SeedSource interface {
	RandomSeed(ctx context.Context) (string, error)
}

// RandomPager is the document graph's random-page facility.
type RandomPager interface {
	RandomPage(ctx context.Context) (string, error)
}

type Options struct {
	SeedSteps     int
	SolutionSteps int
	Attempts      int
}

type Generator struct {
	walker *Walker
	random RandomPager
	seeds  SeedSource
	opts   Options
}

// New builds a generator. seeds may be nil; when it is set and returns a
// title, that title is used instead of the graph's random page.
func New(walker *Walker, random RandomPager, seeds SeedSource, opts Options) *Generator {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.SolutionSteps <= 0 {
		opts.SolutionSteps = 1
	}
	return &Generator{walker: walker, random: random, seeds: seeds, opts: opts}
}

// Generate produces a solvable round. An empty seed means pick one.
func (g *Generator) Generate(ctx context.Context, seed string) (Round, error) {
	var lastErr error
	for attempt := 1; attempt <= g.opts.Attempts; attempt++ {
		round, err := g.attempt(ctx, seed)
		if err == nil {
			return round, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Round{}, ctxErr
		}
		lastErr = err
		log.Printf("round generation attempt failed attempt=%d error=%v", attempt, err)
	}
	return Round{}, fmt.Errorf("%w after %d attempts: %w", ErrRoundGenerationFailed, g.opts.Attempts, lastErr)
}

func (g *Generator) attempt(ctx context.Context, seed string) (Round, error) {
	if seed == "" {
		picked, err := g.pickSeed(ctx)
		if err != nil {
			return Round{}, err
		}
		seed = picked
	}
	start, _, err := g.walker.Walk(ctx, seed, g.opts.SeedSteps, wiki.Forward)
	if err != nil {
		return Round{}, err
	}
	end, solution, err := g.walker.Walk(ctx, start, g.opts.SolutionSteps, wiki.Forward)
	if err != nil {
		return Round{}, err
	}
	if sameTitle(start, end) {
		return Round{}, fmt.Errorf("%w: start equals end %q", ErrWalkExhausted, start)
	}
	return Round{Start: start, End: end, Solution: solution}, nil
}

func (g *Generator) pickSeed(ctx context.Context) (string, error) {
	if g.seeds != nil {
		seed, err := g.seeds.RandomSeed(ctx)
		if err != nil {
			log.Printf("seed pool unavailable error=%v", err)
		} else if seed != "" {
			return seed, nil
		}
	}
	return g.random.RandomPage(ctx)
}

func sameTitle(a, b string) bool {
	return wiki.NormalizeTitle(a) == wiki.NormalizeTitle(b)
}
