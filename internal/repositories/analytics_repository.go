package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnalyticsRepository persists analytics events
type AnalyticsRepository interface {
	InsertEvent(ctx context.Context, event *models.AnalyticsEvent) error
}

// MongoAnalyticsRepository stores events in the analytics_events collection
type MongoAnalyticsRepository struct {
	collection *mongo.Collection
}

func NewMongoAnalyticsRepository(db *mongo.Database) *MongoAnalyticsRepository {
	return &MongoAnalyticsRepository{collection: db.Collection("analytics_events")}
}

func (r *MongoAnalyticsRepository) InsertEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	_, err := r.collection.InsertOne(ctx, event)
	return err
}
