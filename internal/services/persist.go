package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"conferencecompanion/internal/domain"
)

// Keys under which each store persists its snapshot in the shared KeyValueStore.
const (
	EventStoreKey    = "conf-event-store"
	SettingsStoreKey = "conf-app-store"
	AuthStoreKey     = "conf-auth-store"
)

const snapshotWriteTimeout = 5 * time.Second

// Option configures a store or the bookmark coordinator.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loadSnapshot decodes the value stored under key into dest.
// found is false when the key was never written.
func loadSnapshot(ctx context.Context, kv domain.KeyValueStore, key string, dest any) (found bool, err error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// snapshotWriter persists store snapshots fire-and-forget. A single goroutine
// performs the writes in order; snapshots queued while a write is in flight
// are coalesced so only the latest one lands (last write wins).
type snapshotWriter struct {
	kv     domain.KeyValueStore
	key    string
	logger *slog.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	pending    []byte
	hasPending bool
	queued     uint64
	written    uint64
	closed     bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newSnapshotWriter(kv domain.KeyValueStore, key string, logger *slog.Logger) *snapshotWriter {
	w := &snapshotWriter{
		kv:     kv,
		key:    key,
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Save queues v for writing and returns immediately.
func (w *snapshotWriter) Save(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.logger.Error("encode snapshot", "key", w.key, "err", err)
		return
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("snapshot dropped after close", "key", w.key)
		return
	}
	w.pending = data
	w.hasPending = true
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot queued before the call has been written
// (or superseded by a later write).
func (w *snapshotWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	target := w.queued
	for w.written < target && !(w.closed && !w.hasPending) {
		w.cond.Wait()
	}
}

// Close writes any pending snapshot and stops the writer goroutine.
func (w *snapshotWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.mu.Unlock()
	close(w.stop)
	<-w.done
}

func (w *snapshotWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			w.mu.Lock()
			w.cond.Broadcast()
			w.mu.Unlock()
			return
		}
	}
}

func (w *snapshotWriter) drain() {
	for {
		w.mu.Lock()
		if !w.hasPending {
			w.mu.Unlock()
			return
		}
		data, seq := w.pending, w.queued
		w.pending, w.hasPending = nil, false
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
		if err := w.kv.Set(ctx, w.key, data); err != nil {
			w.logger.Error("persist snapshot", "key", w.key, "err", err)
		}
		cancel()

		w.mu.Lock()
		w.written = seq
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}
