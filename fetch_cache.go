package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/fetchcache/api"
	"github.com/krisalay/fetchcache/engine"
	"github.com/krisalay/fetchcache/eviction"
	"github.com/krisalay/fetchcache/expiration"
	"github.com/krisalay/fetchcache/store"
	"github.com/krisalay/fetchcache/types"
)

const (
	DefaultCapacity = 50
	DefaultTTL      = 5 * time.Minute
)

var _ api.Cache = (*FetchCache)(nil)

// ErrClosed is returned for retrievals started after Close.
var ErrClosed = errors.New("fetchcache: closed")

/*
FetchCache deduplicates and caches retrieval of named JSON documents.
It connects:
- the entry store (bounded, insertion ordered)
- the engine (expiry, fetching, write policy, metrics)
- singleflight, so each key has at most one retrieval in flight

A FetchCache is safe for concurrent use and owns its entries exclusively.
*/
type FetchCache struct {
	store  *store.Store
	engine *engine.CacheEngine

	// sf makes concurrent misses on one key share a single retrieval.
	sf singleflight.Group

	// pending mirrors the keys sf is currently fetching, for Stats.
	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool

	// loads counts running retrievals so Close can wait for them.
	loads sync.WaitGroup
}

// Stats is a read-only view of the cache.
type Stats = api.Stats

/*
NewFetchCache creates a cache holding at most capacity documents (below 1
means unbounded), evicting with the given policy.
*/
func NewFetchCache(capacity int, ev eviction.PolicyType, engine *engine.CacheEngine) (*FetchCache, error) {
	policy, err := eviction.NewEvictionPolicy(ev)
	if err != nil {
		return nil, err
	}
	return &FetchCache{
		store:   store.New(capacity, policy),
		engine:  engine,
		pending: make(map[string]struct{}),
	}, nil
}

// New creates a FIFO cache of DefaultCapacity documents that expire
// DefaultTTL after they are stored.
func New(fetcher types.Fetcher) *FetchCache {
	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: DefaultTTL},
		fetcher,
		nil,
		nil,
		nil,
	)
	c, _ := NewFetchCache(DefaultCapacity, eviction.FIFO, eng)
	return c
}

// Get returns the document for key, serving it from cache when possible.
func (c *FetchCache) Get(ctx context.Context, key string) (any, error) {
	return c.GetOpts(ctx, key, true)
}

/*
GetOpts retrieves the document for key.

 1. With useCache, an unexpired entry is returned without any fetch.
    An expired one is deleted.
 2. If a retrieval of key is already in flight, the caller waits for it and
    gets the same value or error.
 3. Otherwise a new retrieval starts. On success the document is stored
    when useCache is set; on failure nothing is stored and a
    *types.FetchError is returned.

The retrieval is not tied to any single caller: ctx only bounds how long
this caller waits.
*/
func (c *FetchCache) GetOpts(ctx context.Context, key string, useCache bool) (any, error) {
	if useCache {
		if ent, ok := c.store.Get(key); ok {
			if !c.engine.IsExpired(ent) {
				c.engine.Metrics.Hit()
				return ent.Value, nil
			}
			if c.store.DeleteEntry(key, ent) {
				c.engine.Metrics.Expire()
			}
		}
	}

	leader := false
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		leader = true
		return c.load(fetchCtx, key, useCache)
	})

	select {
	case res := <-ch:
		if !leader {
			c.engine.Metrics.Coalesced()
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load runs as the single retrieval for key.
func (c *FetchCache) load(ctx context.Context, key string, useCache bool) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.loads.Add(1)
	c.pending[key] = struct{}{}
	c.mu.Unlock()

	// settled: waiters must never see a pending entry for a finished load
	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
		c.loads.Done()
	}()

	c.engine.Metrics.Miss()

	v, err := c.engine.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if useCache {
		c.put(ctx, key, v)
	}
	return v, nil
}

func (c *FetchCache) put(ctx context.Context, key string, v any) {
	ent := c.engine.NewEntry(key, v)
	res := c.store.Put(ent, c.engine.IsExpired)

	for range res.Expired {
		c.engine.Metrics.Expire()
	}
	if res.Evicted != "" {
		c.engine.Metrics.Eviction()
		c.engine.Logger.WithField("key", res.Evicted).Debug("evicted")
	}

	c.engine.OnWrite(ctx, ent)
}

/*
GetMany fetches every source concurrently. The result maps each name to its
document, or to nil when that fetch failed. One failure never affects the
others and GetMany itself never fails.
*/
func (c *FetchCache) GetMany(ctx context.Context, sources map[string]string) map[string]any {
	var (
		g   errgroup.Group
		mu  sync.Mutex
		out = make(map[string]any, len(sources))
	)

	for name, key := range sources {
		g.Go(func() error {
			v, err := c.Get(ctx, key)
			if err != nil {
				c.engine.Logger.WithError(err).WithFields(log.Fields{
					"name": name,
					"key":  key,
				}).Warn("failed to load")
				v = nil
			}

			mu.Lock()
			out[name] = v
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return out
}

/*
GetWithRetry makes up to maxAttempts uncached retrievals of key, waiting
delay between attempts. It returns the first success, or the last
attempt's error. maxAttempts below 1 counts as 1. Cancelling ctx stops
retrying and returns ctx.Err().
*/
func (c *FetchCache) GetWithRetry(ctx context.Context, key string, maxAttempts int, delay time.Duration) (any, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := c.GetOpts(ctx, key, false)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		c.engine.Logger.WithError(err).WithFields(log.Fields{
			"key":     key,
			"attempt": fmt.Sprintf("%d/%d", attempt, maxAttempts),
		}).Warn("attempt failed")

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// Refresh drops key from the cache and retrieves it again without caching
// the result.
func (c *FetchCache) Refresh(ctx context.Context, key string) (any, error) {
	c.Invalidate(key)
	return c.GetOpts(ctx, key, false)
}

// Invalidate removes one entry. A retrieval already in flight for key is
// not cancelled and will store its result as usual.
func (c *FetchCache) Invalidate(key string) {
	if c.store.Delete(key) {
		c.engine.Logger.WithField("key", key).Debug("cache cleared")
	}
}

// InvalidateAll removes every entry.
func (c *FetchCache) InvalidateAll() {
	c.store.Clear()
	c.engine.Logger.Debug("all cache cleared")
}

// Stats reports the entry count, cached keys (oldest first) and how many
// retrievals are in flight. It has no side effects; expired entries that
// haven't been read yet are still counted.
func (c *FetchCache) Stats() Stats {
	c.mu.Lock()
	pending := len(c.pending)
	c.mu.Unlock()

	keys := c.store.Keys()
	return Stats{
		Size:    len(keys),
		Keys:    keys,
		Pending: pending,
	}
}

// Entries returns a copy of every cached entry, oldest first.
func (c *FetchCache) Entries() []types.CacheEntry {
	return c.store.Entries()
}

/*
Close waits for running retrievals to settle, so their documents still
reach the write policy, then flushes the write policy. Retrievals started
afterwards fail with ErrClosed. Close is safe to call more than once.
*/
func (c *FetchCache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.loads.Wait()
	c.engine.Close()
}
