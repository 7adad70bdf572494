package api

import (
	"context"
	"time"
)

/*
Cache is the public contract of the fetch cache. Storage, eviction,
expiry, request deduplication and fetching all sit behind it.
*/
type Cache interface {

	/*
		Get returns the document stored under key.

		BEHAVIOR:
		---------
		1. A cached, unexpired document is returned immediately.
		2. If another caller is already retrieving key, Get waits for that
		   retrieval and returns its outcome.
		3. Otherwise the document is fetched, cached and returned.
	*/
	Get(ctx context.Context, key string) (any, error)

	// GetOpts is Get with the cache optionally bypassed. With useCache
	// false, the cache is neither read nor written, but in-flight
	// retrievals are still shared.
	GetOpts(ctx context.Context, key string, useCache bool) (any, error)

	// GetMany fetches every name → key pair concurrently. Failed keys map
	// to nil.
	GetMany(ctx context.Context, sources map[string]string) map[string]any

	// GetWithRetry retries an uncached Get with a fixed delay.
	GetWithRetry(ctx context.Context, key string, maxAttempts int, delay time.Duration) (any, error)

	// Refresh invalidates key and fetches it again, uncached.
	Refresh(ctx context.Context, key string) (any, error)

	// Invalidate drops one entry; InvalidateAll drops all of them.
	Invalidate(key string)
	InvalidateAll()

	// Stats reports what is cached and what is in flight.
	Stats() Stats

	Close()
}

// Stats is a point-in-time view of a cache.
type Stats struct {
	Size    int      `json:"size"`
	Keys    []string `json:"keys"`
	Pending int      `json:"pending"`
}
