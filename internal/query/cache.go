// Package query caches reads from the platform API under semantic keys and
// lets writes mark related keys stale.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/clinic-admin/internal/observability"
)

type entry struct {
	key       Key
	value     any
	fetchedAt time.Time
	stale     bool
	gen       uint64
}

// slot tracks the write generation of one key. Invalidate moves it forward,
// which retires every read started under an older generation.
type slot struct {
	key Key
	gen uint64
}

// Cache is a keyed result cache. Concurrent reads of one key share a single
// fetch; invalidation marks entries stale so the next read refetches.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	slots      map[string]*slot
	group      singleflight.Group
	staleAfter time.Duration
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewCache builds a cache. staleAfter of zero keeps entries fresh until
// they are invalidated.
func NewCache(staleAfter time.Duration, metrics *observability.Metrics) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		slots:      make(map[string]*slot),
		staleAfter: staleAfter,
		metrics:    metrics,
		now:        time.Now,
	}
}

// FetchFunc loads the value for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Fetch returns the cached value for key or loads it with fn. If ctx ends
// while waiting, Fetch returns ctx.Err() and the late result only lands in
// the cache.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn FetchFunc[T]) (T, error) {
	var zero T
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached %T is not %T", key, v, zero)
	}
	return out, nil
}

func (c *Cache) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	id := key.String()
	if v, ok := c.fresh(id); ok {
		c.metrics.RecordCacheLookup(true)
		return v, nil
	}
	c.metrics.RecordCacheLookup(false)

	// The shared call outlives any single waiter. Reads started after an
	// invalidation get a new generation and so never join an older call.
	gen := c.generation(id, key)
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%s#%d", id, gen), func() (any, error) {
		v, err := fn(shared)
		c.complete(id, key, gen, v, err)
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fresh(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || e.stale {
		return nil, false
	}
	if c.staleAfter > 0 && c.now().Sub(e.fetchedAt) > c.staleAfter {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) generation(id string, key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[id]
	if !ok {
		s = &slot{key: key}
		c.slots[id] = s
	}
	return s.gen
}

func (c *Cache) complete(id string, key Key, gen uint64, v any, err error) {
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok && e.gen > gen {
		return
	}
	// A read that began before a write may not reflect it: keep the value
	// but refetch on the next read.
	c.entries[id] = &entry{key: key, value: v, fetchedAt: c.now(), stale: gen != c.slots[id].gen, gen: gen}
}

// Invalidate marks every entry whose key starts with one of prefixes as
// stale and returns how many cached entries it touched. Reads of those keys
// already in flight are detached from later readers.
func (c *Cache) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := 0
	for id, s := range c.slots {
		if !matchesAny(s.key, prefixes) {
			continue
		}
		s.gen++
		if e, ok := c.entries[id]; ok && !e.stale {
			e.stale = true
			touched++
		}
	}
	return touched
}

func matchesAny(key Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if key.HasPrefix(p) {
			return true
		}
	}
	return false
}

// State reports whether key is cached and whether it is stale.
func (c *Cache) State(key Key) (cached, stale bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return false, false
	}
	return true, e.stale
}

// Clear drops every entry. Reads in flight when Clear runs do not repopulate
// the cache as fresh.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.slots {
		s.gen++
	}
	c.entries = make(map[string]*entry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
