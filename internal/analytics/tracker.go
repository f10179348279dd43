// Package analytics records user action events without blocking the actions themselves.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// Sink stores or forwards an event
type Sink interface {
	Record(ctx context.Context, event *models.AnalyticsEvent) error
}

// Tracker queues events and hands them to its sinks from a single worker.
// Track never blocks: events are dropped when the queue is full or the tracker is closed.
type Tracker struct {
	sinks  []Sink
	logger *zap.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan models.AnalyticsEvent
	done   chan struct{}
}

// NewTracker creates a new Tracker and starts its worker
func NewTracker(queueSize int, logger *zap.Logger, sinks ...Sink) *Tracker {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		sinks:  sinks,
		logger: logger,
		now:    time.Now,
		queue:  make(chan models.AnalyticsEvent, queueSize),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// Track enqueues event, assigning its ID and timestamp when missing
func (t *Tracker) Track(event models.AnalyticsEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = t.now()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.logger.Warn("analytics tracker closed, dropping event", zap.String("event", event.EventName))
		return
	}
	select {
	case t.queue <- event:
	default:
		t.logger.Warn("analytics queue full, dropping event", zap.String("event", event.EventName), zap.String("post_id", event.Post.ID))
	}
}

// Close stops accepting events and waits for queued ones to be recorded
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		<-t.done
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()
	<-t.done
}

func (t *Tracker) run() {
	defer close(t.done)
	for event := range t.queue {
		t.record(event)
	}
}

func (t *Tracker) record(event models.AnalyticsEvent) {
	for _, sink := range t.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := sink.Record(ctx, &event); err != nil {
			t.logger.Warn("analytics sink failed", zap.String("event", event.EventName), zap.Error(err))
		}
		cancel()
	}
}
