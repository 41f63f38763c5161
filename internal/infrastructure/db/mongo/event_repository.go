package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/ports"
)

const eventsCollection = "feedback_events"

// EventRepository implements ports.AuditRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.AuditRepository {
	return &EventRepository{db: db}
}

// InsertEvent persists a moderation event to the feedback_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.ModerationEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"feedback_id":  event.FeedbackID,
		"status":       string(event.Status),
		"actor_id":     event.ActorID,
		"actor_role":   string(event.ActorRole),
		"had_image":    event.HadImage,
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": time.Now().UTC(),
	}

	_, err := r.db.Collection(eventsCollection).InsertOne(ctx, doc)
	return err
}
