package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/krisalay/fetchcache/types"
)

var _ types.SnapshotStore = (*MemoryStore)(nil)

// MemoryStore keeps serialized snapshots in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = b
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	b, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return decode(key, b)
}

// Len returns how many snapshots are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func decode(key string, b []byte) (any, bool, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return v, true, nil
}
