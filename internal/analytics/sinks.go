package analytics

import (
	"context"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"go.uber.org/zap"
)

// RepositorySink persists events through an AnalyticsRepository
type RepositorySink struct {
	repository repositories.AnalyticsRepository
}

// NewRepositorySink creates a new RepositorySink
func NewRepositorySink(repo repositories.AnalyticsRepository) *RepositorySink {
	return &RepositorySink{repository: repo}
}

func (s *RepositorySink) Record(ctx context.Context, event *models.AnalyticsEvent) error {
	return s.repository.InsertEvent(ctx, event)
}

// LogSink writes events to the debug log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, event *models.AnalyticsEvent) error {
	s.logger.Debug("analytics event",
		zap.String("id", event.ID),
		zap.String("event", event.EventName),
		zap.Uint("user_id", event.UserID),
		zap.String("post_id", event.Post.ID),
		zap.Int("row", event.Row),
		zap.Int("column", event.Column),
		zap.Int("columns", event.Columns),
		zap.String("origin", event.Extra.Origin),
		zap.String("feed", event.Extra.Feed),
	)
	return nil
}
