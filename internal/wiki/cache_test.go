package wiki

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingGraph struct {
	mu    sync.Mutex
	calls int
	links map[string][]string
	err   error
}

func (g *countingGraph) RandomPage(ctx context.Context) (string, error) { return "A", nil }

func (g *countingGraph) Links(ctx context.Context, title string, dir Direction) ([]string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.links[title], nil
}

func (g *countingGraph) PageExists(ctx context.Context, title string) (bool, error) {
	_, ok := g.links[title]
	return ok, nil
}

func (g *countingGraph) Parse(ctx context.Context, title string) (Page, error) {
	return Page{Title: title, Links: g.links[title]}, nil
}

// gatedGraph holds every Links call until release is closed.
type gatedGraph struct {
	countingGraph
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedGraph) Links(ctx context.Context, title string, dir Direction) ([]string, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.countingGraph.Links(ctx, title, dir)
}

func TestCachedGraphPassesThroughWithoutRedis(t *testing.T) {
	inner := &countingGraph{links: map[string][]string{"A": {"B", "C"}}}
	graph := NewCachedGraph(inner, nil, 0)

	links, err := graph.Links(context.Background(), "A", Forward)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("unexpected links %v", links)
	}
	links[0] = "mutated"
	again, _ := graph.Links(context.Background(), "A", Forward)
	if again[0] != "B" {
		t.Fatalf("expected callers to get independent slices, got %v", again)
	}
	if ok, _ := graph.PageExists(context.Background(), "A"); !ok {
		t.Fatalf("expected embedded graph methods to be promoted")
	}
}

func TestCachedGraphPropagatesErrors(t *testing.T) {
	inner := &countingGraph{err: ErrPageNotFound}
	graph := NewCachedGraph(inner, nil, 0)
	if _, err := graph.Links(context.Background(), "A", Forward); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestLinksCacheKey(t *testing.T) {
	if got := linksCacheKey("Foo Bar", Backward); got != "wiki:links:in:Foo Bar" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := linksCacheKey("Foo", Forward); got != "wiki:links:out:Foo" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCachedGraphSharedLookupSurvivesCallerCancel(t *testing.T) {
	inner := &gatedGraph{
		countingGraph: countingGraph{links: map[string][]string{"A": {"B"}}},
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	graph := NewCachedGraph(inner, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := graph.Links(ctx, "A", Forward)
		firstErr <- err
	}()
	<-inner.started

	type result struct {
		links []string
		err   error
	}
	second := make(chan result, 1)
	go func() {
		links, err := graph.Links(context.Background(), "A", Forward)
		second <- result{links, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected first caller to see context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first caller did not return after cancel")
	}

	close(inner.release)
	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("expected second caller to succeed, got %v", res.err)
		}
		if len(res.links) != 1 || res.links[0] != "B" {
			t.Fatalf("unexpected links %v", res.links)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second caller did not return")
	}
}
