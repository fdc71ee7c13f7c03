package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

// Config bounds the cache. Entries expire after TTL or fall off the LRU
// tail when the cache exceeds Capacity, whichever comes first.
type Config struct {
	TTL      time.Duration
	Capacity int
}

func (c Config) normalize() Config {
	out := c
	if out.TTL <= 0 {
		out.TTL = 15 * time.Minute
	}
	if out.Capacity <= 0 {
		out.Capacity = 1024
	}
	return out
}

type entry struct {
	key       string
	result    *domain.AnalysisResult
	expiresAt time.Time
}

// ResultCache memoizes sealed analyses by fingerprint with single-flight
// deduplication: concurrent callers for one key share a single computation.
// The computation runs detached from any caller's context, so one joiner
// cancelling never cancels work shared with the others, and a finished
// computation is cached even if everyone stopped waiting.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	ttl     time.Duration
	cap     int
	now     func() time.Time

	group singleflight.Group
}

func New(cfg Config) *ResultCache {
	cfg = cfg.normalize()
	return &ResultCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     cfg.TTL,
		cap:     cfg.Capacity,
		now:     time.Now,
	}
}

// GetOrCompute returns the sealed entry for key, joining an in-flight
// computation or starting one. The bool reports a cache hit. Exactly one
// compute runs per key per TTL window regardless of fan-in; compute errors
// are returned to every joined caller and nothing is cached.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (*domain.AnalysisResult, error)) (*domain.AnalysisResult, bool, error) {
	if result, ok := c.lookup(key); ok {
		return result, true, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// A racing first-caller may have sealed the entry between our
		// lookup and the flight starting.
		if result, ok := c.lookup(key); ok {
			return result, nil
		}
		result, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Put(key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*domain.AnalysisResult), false, nil
	}
}

// Put seals a result into the cache under key with a fresh TTL.
func (c *ResultCache) Put(key string, result *domain.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*entry).result = result
		elem.Value.(*entry).expiresAt = c.now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&entry{
		key:       key,
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	})
	c.entries[key] = elem

	for len(c.entries) > c.cap {
		c.evictOldest()
	}
}

// Len reports live (non-expired) entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	now := c.now()
	for _, elem := range c.entries {
		if elem.Value.(*entry).expiresAt.After(now) {
			count++
		}
	}
	return count
}

func (c *ResultCache) lookup(key string) (*domain.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	ent := elem.Value.(*entry)
	if !ent.expiresAt.After(c.now()) {
		c.removeLocked(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return ent.result, true
}

func (c *ResultCache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeLocked(elem)
	}
}

func (c *ResultCache) removeLocked(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*entry).key)
}
