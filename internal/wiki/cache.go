package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedGraph memoizes link lists in redis and collapses concurrent
// lookups of the same page into one upstream request.
type CachedGraph struct {
	Graph
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedGraph wraps inner. A nil client disables the redis layer but keeps
// request collapsing.
func NewCachedGraph(inner Graph, client *redis.Client, ttl time.Duration) *CachedGraph {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedGraph{
		Graph: inner,
		redis: client,
		ttl:   ttl,
	}
}

// Links returns the links of title. A shared lookup runs detached from the
// cancellation of whichever caller started it; each caller stops waiting when
// its own ctx is done.
func (g *CachedGraph) Links(ctx context.Context, title string, dir Direction) ([]string, error) {
	key := linksCacheKey(title, dir)
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		if links, ok := g.loadLinks(shared, key); ok {
			return links, nil
		}
		links, err := g.Graph.Links(shared, title, dir)
		if err != nil {
			return nil, err
		}
		g.storeLinks(shared, key, links)
		return links, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		links := res.Val.([]string)
		out := make([]string, len(links))
		copy(out, links)
		return out, nil
	}
}

func (g *CachedGraph) loadLinks(ctx context.Context, key string) ([]string, bool) {
	if g.redis == nil {
		return nil, false
	}
	data, err := g.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("link cache read failed key=%s error=%v", key, err)
		}
		return nil, false
	}
	var links []string
	if err := json.Unmarshal([]byte(data), &links); err != nil {
		log.Printf("link cache decode failed key=%s error=%v", key, err)
		return nil, false
	}
	return links, true
}

func (g *CachedGraph) storeLinks(ctx context.Context, key string, links []string) {
	if g.redis == nil {
		return
	}
	data, err := json.Marshal(links)
	if err != nil {
		return
	}
	if err := g.redis.Set(ctx, key, data, g.ttl).Err(); err != nil {
		log.Printf("link cache write failed key=%s error=%v", key, err)
	}
}

func linksCacheKey(title string, dir Direction) string {
	return "wiki:links:" + dir.String() + ":" + title
}
