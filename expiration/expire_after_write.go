package expiration

import (
	"time"

	"github.com/krisalay/fetchcache/types"
)

/*
ExpireAfterWrite gives every entry a fixed lifetime counted from the moment
it was stored. Reads never extend it.
*/
type ExpireAfterWrite struct {

	// TTL is how long an entry stays valid after it is stored.
	// Zero means entries never expire.
	TTL time.Duration
}

// IsExpired checks whether the entry is expired at this moment. An entry is
// still valid at exactly ExpireAt.
func (e *ExpireAfterWrite) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return !ent.ExpireAt.IsZero() && now.After(ent.ExpireAt)
}

// OnWrite stamps StoredAt and, when a TTL is configured, ExpireAt.
func (e *ExpireAfterWrite) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.StoredAt = now
	ent.ExpireAt = time.Time{}
	if e.TTL > 0 {
		ent.ExpireAt = now.Add(e.TTL)
	}
}
