package eviction

import "fmt"

/*
Policy decides which key goes when the cache runs out of space.

The cache does NOT care how eviction works internally. It reports puts,
reads and explicit removals, and asks for a victim when full.
*/
type Policy interface {

	// OnGet is called whenever a key is read from the cache.
	OnGet(string)

	// OnPut is called whenever a key is stored. Storing a key that is
	// already tracked must not change its position.
	OnPut(string)

	// Remove is called when a key leaves the cache for any reason other
	// than Evict (invalidation, expiry).
	Remove(string)

	// Evict returns the key that should be removed, or "" if nothing is tracked.
	Evict() string

	// Keys returns tracked keys, next victim first.
	Keys() []string
}

// PolicyType names a supported eviction strategy.
type PolicyType string

const (
	// FIFO (First In First Out): evicts the oldest inserted key, regardless of access.
	FIFO PolicyType = "FIFO"
)

// NewEvictionPolicy creates the policy for t. An empty type means FIFO.
func NewEvictionPolicy(t PolicyType) (Policy, error) {
	switch t {
	case FIFO, "":
		return newFIFO(), nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", t)
	}
}
