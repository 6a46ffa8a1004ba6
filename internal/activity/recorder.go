// Package activity records workspace feed entries asynchronously. Feed
// writes are best-effort: a failed or dropped entry never fails the
// operation that produced it.
package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DesmondSol/speedops/internal/store"
	"github.com/DesmondSol/speedops/pkg/models"
)

const writeTimeout = 5 * time.Second

type job struct {
	ws    string
	entry models.ActivityEntry
}

// Recorder serializes feed writes through a single worker goroutine. When
// the queue is full the entry is dropped with a warning rather than blocking
// the caller.
type Recorder struct {
	store store.Store
	log   *slog.Logger

	mu     sync.Mutex
	closed bool
	ch     chan job
	done   chan struct{}
}

// NewRecorder starts the worker. Close must be called to flush pending
// entries on shutdown.
func NewRecorder(s store.Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		store: s,
		log:   log,
		ch:    make(chan job, models.DefaultActivityQueueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for j := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if _, err := r.store.AppendActivity(ctx, j.ws, j.entry); err != nil {
			r.log.Warn("activity write failed", "workspace", j.ws, "source", j.entry.Source, "err", err)
		}
		cancel()
	}
}

// Record queues a feed entry. It never blocks and never returns an error.
func (r *Recorder) Record(ws string, e models.ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- job{ws: ws, entry: e}:
	default:
		r.log.Warn("activity queue full, dropping entry", "workspace", ws, "source", e.Source)
	}
}

// Close stops accepting entries, drains the queue, and waits for the worker.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	<-r.done
}
