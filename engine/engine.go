package engine

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/krisalay/fetchcache/expiration"
	"github.com/krisalay/fetchcache/types"
	"github.com/krisalay/fetchcache/writepolicy"
)

/*
CacheEngine is the policy layer of the fetch cache. It decides:
- When an entry is expired
- How documents are fetched on a miss
- Where stored documents are mirrored
- How events are logged and counted

It does NOT store entries, deduplicate requests or choose eviction victims.
*/
type CacheEngine struct {

	// Expiration decides when a cached document is stale.
	// If nil, entries never expire.
	Expiration expiration.Strategy

	// Fetcher retrieves and parses documents on a miss.
	Fetcher types.Fetcher

	// WritePolicy optionally mirrors stored documents into a snapshot store.
	// If nil, documents stay only in memory.
	WritePolicy writepolicy.WritePolicy

	// Metrics counts hits, misses, coalesced waits, evictions, expiries
	// and failed fetches.
	Metrics types.Metrics

	Logger log.Interface

	// Now is the clock. Tests swap it to move time without sleeping.
	Now func() time.Time
}

/*
NewCacheEngine creates a CacheEngine. Only the fetcher is required;
nil metrics and logger fall back to no-op metrics and the global apex
logger.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	fetcher types.Fetcher,
	writePolicy writepolicy.WritePolicy,
	metrics types.Metrics,
	logger log.Interface,
) *CacheEngine {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = log.Log
	}

	return &CacheEngine{
		Expiration:  exp,
		Fetcher:     fetcher,
		WritePolicy: writePolicy,
		Metrics:     metrics,
		Logger:      logger,
		Now:         time.Now,
	}
}

// IsExpired reports whether ent must be treated as absent right now.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry) bool {
	return e.Expiration != nil &&
		e.Expiration.IsExpired(ent, e.Now())
}

// NewEntry builds the entry for a freshly fetched document, stamped by the
// expiration strategy.
func (e *CacheEngine) NewEntry(key string, value any) *types.CacheEntry {
	now := e.Now()
	ent := &types.CacheEntry{Key: key, Value: value, StoredAt: now}
	if e.Expiration != nil {
		e.Expiration.OnWrite(ent, now)
	}
	return ent
}

// OnWrite forwards a stored document to the write policy, if any.
func (e *CacheEngine) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	if e.WritePolicy != nil {
		e.WritePolicy.OnWrite(ctx, ent.Key, ent.Value)
	}
}

/*
Fetch retrieves key through the fetcher. Every failure comes back as a
*types.FetchError so callers can match it with errors.Is(err,
types.ErrFetchFailed).
*/
func (e *CacheEngine) Fetch(ctx context.Context, key string) (any, error) {
	start := e.Now()
	v, err := e.Fetcher.Fetch(ctx, key)
	if err != nil {
		e.Metrics.FetchFailure()
		e.Logger.WithError(err).WithField("key", key).Warn("failed to load JSON")
		return nil, &types.FetchError{Key: key, Err: err}
	}
	e.Logger.WithFields(log.Fields{
		"key":      key,
		"duration": e.Now().Sub(start),
	}).Debug("loaded JSON")
	return v, nil
}

// Close flushes the write policy.
func (e *CacheEngine) Close() {
	if e.WritePolicy != nil {
		e.WritePolicy.Close()
	}
}
