package store

import (
	"sync"

	"github.com/krisalay/fetchcache/eviction"
	"github.com/krisalay/fetchcache/types"
)

/*
Store holds the cached entries of one FetchCache. It knows nothing about
fetching or TTLs; it keeps entries, remembers their insertion order through
the eviction policy, and never holds more than capacity entries.

All methods are safe for concurrent use.
*/
type Store struct {
	mu       sync.Mutex
	entries  map[string]*types.CacheEntry
	eviction eviction.Policy
	capacity int
}

// PutResult reports what a Put had to remove to make room.
type PutResult struct {
	// Expired lists keys purged because they were stale.
	Expired []string

	// Evicted is the key pushed out by the eviction policy, if any.
	Evicted string
}

// New creates a Store. A capacity below 1 means unbounded.
func New(capacity int, ev eviction.Policy) *Store {
	return &Store{
		entries:  make(map[string]*types.CacheEntry),
		eviction: ev,
		capacity: capacity,
	}
}

// Get retrieves an entry by key.
func (s *Store) Get(key string) (*types.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if ok {
		s.eviction.OnGet(key)
	}
	return ent, ok
}

/*
Put inserts or replaces an entry.

When a new key arrives at a full store, entries for which stale reports
true are purged first. Only if the store is still full does the eviction
policy pick a victim. Replacing an existing key never evicts anything.
*/
func (s *Store) Put(ent *types.CacheEntry, stale func(*types.CacheEntry) bool) PutResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res PutResult
	if _, exists := s.entries[ent.Key]; !exists && s.full() {
		if stale != nil {
			for _, k := range s.eviction.Keys() {
				if stale(s.entries[k]) {
					s.deleteLocked(k)
					res.Expired = append(res.Expired, k)
				}
			}
		}
		if s.full() {
			if victim := s.eviction.Evict(); victim != "" {
				delete(s.entries, victim)
				res.Evicted = victim
			}
		}
	}

	s.entries[ent.Key] = ent
	s.eviction.OnPut(ent.Key)
	return res
}

// Delete removes key. It reports whether anything was removed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	s.deleteLocked(key)
	return true
}

// DeleteEntry removes key only while it still maps to ent, so a stale read
// can't drop an entry that was replaced in the meantime.
func (s *Store) DeleteEntry(key string, ent *types.CacheEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[key]; !ok || cur != ent {
		return false
	}
	s.deleteLocked(key)
	return true
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.entries {
		s.deleteLocked(k)
	}
}

// Len returns how many entries are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns stored keys, oldest insertion first.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eviction.Keys()
}

// Entries returns a copy of every entry, oldest insertion first.
func (s *Store) Entries() []types.CacheEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.CacheEntry, 0, len(s.entries))
	for _, k := range s.eviction.Keys() {
		out = append(out, *s.entries[k])
	}
	return out
}

func (s *Store) full() bool {
	return s.capacity > 0 && len(s.entries) >= s.capacity
}

func (s *Store) deleteLocked(key string) {
	delete(s.entries, key)
	s.eviction.Remove(key)
}
