package writepolicy

import (
	"context"

	"github.com/apex/log"

	"github.com/krisalay/fetchcache/types"
)

/*
WriteThroughPolicy saves every cached document to the snapshot store
synchronously: Cache write → snapshot write.
*/
type WriteThroughPolicy struct {
	store  types.SnapshotStore
	logger log.Interface
}

func NewWriteThroughPolicy(store types.SnapshotStore, logger log.Interface) *WriteThroughPolicy {
	if logger == nil {
		logger = log.Log
	}
	return &WriteThroughPolicy{store: store, logger: logger}
}

// OnWrite saves the document before returning. A failed save is logged and
// otherwise ignored; the cached copy is still served.
func (w *WriteThroughPolicy) OnWrite(ctx context.Context, key string, value any) {
	if err := w.store.Save(ctx, key, value); err != nil {
		w.logger.WithError(err).WithField("key", key).Warn("snapshot write failed")
	}
}

// Close has nothing to flush.
func (w *WriteThroughPolicy) Close() {}
