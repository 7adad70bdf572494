// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/fetchcache/types"
)

/*
Strategy decides when a cached document is too old to serve.
Expiration logic lives behind this interface so the cache never hard-codes it.
*/
type Strategy interface {

	// IsExpired reports whether the entry must be treated as absent at now.
	IsExpired(*types.CacheEntry, time.Time) bool

	// OnWrite is called whenever an entry is stored.
	OnWrite(*types.CacheEntry, time.Time)
}
