package types

import "time"

// CacheEntry is one cached JSON document.
type CacheEntry struct {
	Key      string
	Value    any
	StoredAt time.Time
	ExpireAt time.Time // zero => never expires
}
