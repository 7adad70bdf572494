package writepolicy

import (
	"context"
	"sync"

	"github.com/apex/log"

	"github.com/krisalay/fetchcache/types"
)

// writeReq is one pending snapshot write.
type writeReq struct {
	ctx   context.Context
	key   string
	value any
}

/*
WriteBackPolicy saves cached documents to the snapshot store from a
background worker.
*/
type WriteBackPolicy struct {
	store  types.SnapshotStore
	logger log.Interface

	// ch holds pending writes. Buffering lets bursts through without
	// blocking the fetch path.
	ch chan writeReq

	// mu guards closed; OnWrite holds it shared while sending so Close
	// never closes ch under a sender.
	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

// NewWriteBackPolicy creates a write-back policy and starts its worker.
// buffer is raised to 1 when smaller.
func NewWriteBackPolicy(store types.SnapshotStore, buffer int, logger log.Interface) *WriteBackPolicy {
	if logger == nil {
		logger = log.Log
	}
	if buffer < 1 {
		buffer = 1
	}
	w := &WriteBackPolicy{
		store:  store,
		logger: logger,
		ch:     make(chan writeReq, buffer),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

// OnWrite queues the write. If the queue is full the write is dropped; the
// next fetch of the same key will queue it again. Writes after Close are
// dropped as well.
func (w *WriteBackPolicy) OnWrite(ctx context.Context, key string, value any) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.logger.WithField("key", key).Warn("snapshot policy closed, dropping write")
		return
	}

	select {
	case w.ch <- writeReq{context.WithoutCancel(ctx), key, value}:
	default:
		w.logger.WithField("key", key).Warn("snapshot queue full, dropping write")
	}
}

func (w *WriteBackPolicy) worker() {
	defer w.wg.Done()

	for req := range w.ch {
		if err := w.store.Save(req.ctx, req.key, req.value); err != nil {
			w.logger.WithError(err).WithField("key", req.key).Warn("snapshot write failed")
		}
	}
}

// Close stops accepting writes and waits for queued ones to finish.
func (w *WriteBackPolicy) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()

	w.wg.Wait()
}
