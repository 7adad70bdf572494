package types

import "context"

// Fetcher is the contract between the cache and wherever documents live.
type Fetcher interface {

	/*
		Fetch is called when the cache misses (or the caller bypasses it).
		1. Cache checks memory → key not found or expired
		2. Cache calls Fetch(key), at most once per key at a time
		3. Fetcher retrieves and parses the JSON document
		4. Cache stores the result in memory
		5. Cache returns the value

		The returned value is a parsed JSON value: map[string]any, []any,
		string, float64, bool or nil.
	*/
	Fetch(ctx context.Context, key string) (any, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key string) (any, error)

func (f FetcherFunc) Fetch(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}

// SnapshotStore is an out-of-band key-value store for serialized documents.
// Values are written and read back as JSON without validation.
type SnapshotStore interface {
	Save(ctx context.Context, key string, value any) error

	// Load returns false when nothing is stored under key.
	Load(ctx context.Context, key string) (any, bool, error)
}
