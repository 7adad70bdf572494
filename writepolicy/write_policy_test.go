package writepolicy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/fetchcache/snapshot"
)

type failingStore struct{}

func (failingStore) Save(context.Context, string, any) error {
	return errors.New("disk full")
}

func (failingStore) Load(context.Context, string) (any, bool, error) {
	return nil, false, nil
}

// blockingStore holds every Save until release is closed.
type blockingStore struct {
	release chan struct{}
	mu      sync.Mutex
	saved   []string
}

func (b *blockingStore) Save(_ context.Context, key string, _ any) error {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, key)
	return nil
}

func (b *blockingStore) Load(context.Context, string) (any, bool, error) {
	return nil, false, nil
}

func testLogger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.DebugLevel}, h
}

func TestWriteThroughSavesImmediately(t *testing.T) {
	ctx := context.Background()
	s := snapshot.NewMemoryStore()
	w := NewWriteThroughPolicy(s, nil)

	w.OnWrite(ctx, "a", "alpha")
	w.Close()

	v, ok, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alpha", v)
}

func TestWriteThroughLogsFailures(t *testing.T) {
	logger, h := testLogger()
	w := NewWriteThroughPolicy(failingStore{}, logger)

	w.OnWrite(context.Background(), "a", "alpha")

	require.Len(t, h.Entries, 1)
	assert.Equal(t, log.WarnLevel, h.Entries[0].Level)
	assert.Equal(t, "a", h.Entries[0].Fields["key"])
}

func TestWriteBackFlushesOnClose(t *testing.T) {
	ctx := context.Background()
	s := snapshot.NewMemoryStore()
	w := NewWriteBackPolicy(s, 8, nil)

	w.OnWrite(ctx, "a", 1)
	w.OnWrite(ctx, "b", 2)
	w.Close()
	w.Close()

	assert.Equal(t, 2, s.Len())
}

func TestWriteBackDropsWhenFull(t *testing.T) {
	logger, h := testLogger()
	s := &blockingStore{release: make(chan struct{})}
	w := NewWriteBackPolicy(s, 1, logger)

	// first write is taken by the worker, second fills the buffer,
	// the rest are dropped
	for _, k := range []string{"a", "b", "c", "d"} {
		w.OnWrite(context.Background(), k, k)
	}
	close(s.release)
	w.Close()

	assert.LessOrEqual(t, len(s.saved), 2)
	assert.NotEmpty(t, h.Entries)
}

func TestWriteBackAfterCloseIsDropped(t *testing.T) {
	logger, h := testLogger()
	s := snapshot.NewMemoryStore()
	w := NewWriteBackPolicy(s, 0, logger)
	w.Close()

	assert.NotPanics(t, func() {
		w.OnWrite(context.Background(), "late", 1)
	})
	assert.Equal(t, 0, s.Len())
	require.Len(t, h.Entries, 1)
	assert.Equal(t, "late", h.Entries[0].Fields["key"])
}

func TestWriteBackZeroBufferStillQueues(t *testing.T) {
	s := snapshot.NewMemoryStore()
	w := NewWriteBackPolicy(s, 0, nil)
	w.OnWrite(context.Background(), "a", 1)
	w.Close()

	assert.Equal(t, 1, s.Len())
}
