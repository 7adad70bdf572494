package writepolicy

import "context"

/*
WritePolicy decides what happens to a document after the cache stores it.
The cache only keeps documents in memory; a write policy can mirror them
into a SnapshotStore so they survive the process.
*/
type WritePolicy interface {

	// OnWrite is called whenever the cache stores a freshly fetched document.
	OnWrite(ctx context.Context, key string, value any)

	// Close is called when the cache is shutting down.
	Close()
}
