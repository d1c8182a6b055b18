package generator

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type staticSeeds struct {
	title string
	err   error
}

func (s staticSeeds) RandomSeed(ctx context.Context) (string, error) {
	return s.title, s.err
}

func newTestGenerator(graph *scriptedGraph, seeds SeedSource, attempts int) *Generator {
	return New(NewWalker(graph, testRand()), graph, seeds, Options{SeedSteps: 2, SolutionSteps: 2, Attempts: attempts})
}

func TestGenerateFromRandomPage(t *testing.T) {
	graph := newScriptedGraph().chain("Seed", "A", "B", "C", "D")
	graph.random = []string{"Seed"}

	round, err := newTestGenerator(graph, nil, 3).Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if round.Start != "B" || round.End != "D" {
		t.Fatalf("unexpected round %#v", round)
	}
	if !reflect.DeepEqual(round.Solution, []string{"B", "C", "D"}) {
		t.Fatalf("unexpected solution %v", round.Solution)
	}
}

func TestGenerateUsesExplicitSeed(t *testing.T) {
	graph := newScriptedGraph().chain("Mine", "A", "B", "C", "D")
	round, err := newTestGenerator(graph, nil, 1).Generate(context.Background(), "Mine")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if round.Solution[0] != round.Start || round.Solution[len(round.Solution)-1] != round.End {
		t.Fatalf("solution must run start to end: %#v", round)
	}
}

func TestGeneratePrefersSeedPool(t *testing.T) {
	graph := newScriptedGraph().chain("Pooled", "A", "B", "C", "D")
	round, err := newTestGenerator(graph, staticSeeds{title: "Pooled"}, 1).Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if round.Start != "B" {
		t.Fatalf("expected walk from pooled seed, got %#v", round)
	}
}

func TestGenerateFallsBackWhenSeedPoolFails(t *testing.T) {
	graph := newScriptedGraph().chain("Seed", "A", "B", "C", "D")
	graph.random = []string{"Seed"}
	_, err := newTestGenerator(graph, staticSeeds{err: errors.New("pool down")}, 1).Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("expected fallback to random page, got %v", err)
	}
}

func TestGenerateRetriesDeadSeeds(t *testing.T) {
	graph := newScriptedGraph().chain("Seed", "A", "B", "C", "D")
	graph.random = []string{"Dead", "Dead", "Seed"}

	round, err := newTestGenerator(graph, nil, 3).Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if round.End != "D" {
		t.Fatalf("unexpected round %#v", round)
	}
}

func TestGenerateFailsAfterAttempts(t *testing.T) {
	graph := newScriptedGraph()
	graph.random = []string{"Dead"}

	_, err := newTestGenerator(graph, nil, 4).Generate(context.Background(), "")
	if !errors.Is(err, ErrRoundGenerationFailed) {
		t.Fatalf("expected ErrRoundGenerationFailed, got %v", err)
	}
	if !errors.Is(err, ErrWalkExhausted) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}
	if graph.randomAt != 4 {
		t.Fatalf("expected 4 attempts, got %d", graph.randomAt)
	}
}

func TestGenerateRejectsEquivalentStartAndEnd(t *testing.T) {
	graph := newScriptedGraph().chain("Seed", "X", "New York", "Y", "New_York")
	round, err := New(NewWalker(graph, testRand()), graph, nil, Options{SeedSteps: 2, SolutionSteps: 2, Attempts: 2}).
		Generate(context.Background(), "Seed")
	if !errors.Is(err, ErrRoundGenerationFailed) {
		t.Fatalf("expected failure for start==end, got %#v %v", round, err)
	}
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	graph := newScriptedGraph().chain("Seed", "A", "B", "C", "D")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestGenerator(graph, nil, 5).Generate(ctx, "Seed"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
