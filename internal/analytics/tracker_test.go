package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.AnalyticsEvent
	err    error
	block  chan struct{}
}

func (s *recordingSink) Record(_ context.Context, event *models.AnalyticsEvent) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return s.err
}

func (s *recordingSink) recorded() []models.AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AnalyticsEvent(nil), s.events...)
}

func TestTracker_CloseDrainsQueue(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(8, zap.NewNop(), sink)

	tr.Track(models.AnalyticsEvent{EventName: models.EventBookmarkPost, Post: models.AnalyticsPost{ID: "1"}})
	tr.Track(models.AnalyticsEvent{EventName: models.EventRemovePostBookmark, Post: models.AnalyticsPost{ID: "1"}})
	tr.Close()

	events := sink.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventBookmarkPost, events[0].EventName)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestTracker_FullQueueDropsWithoutBlocking(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	tr := NewTracker(1, zap.NewNop(), sink)

	for i := 0; i < 10; i++ {
		tr.Track(models.AnalyticsEvent{EventName: models.EventUpvotePost})
	}
	close(sink.block)
	tr.Close()

	assert.LessOrEqual(t, len(sink.recorded()), 2)
}

func TestTracker_SinkErrorsDoNotStopOtherSinks(t *testing.T) {
	failing := &recordingSink{err: errors.New("mongo down")}
	ok := &recordingSink{}
	tr := NewTracker(4, zap.NewNop(), failing, ok)

	tr.Track(models.AnalyticsEvent{EventName: models.EventBookmarkPost})
	tr.Close()

	assert.Len(t, ok.recorded(), 1)
}

func TestTracker_TrackAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracker(4, zap.NewNop(), sink)
	tr.Close()
	tr.Close()

	tr.Track(models.AnalyticsEvent{EventName: models.EventBookmarkPost})
	assert.Empty(t, sink.recorded())
}
