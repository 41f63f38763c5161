package postgres

import (
	"context"
	"database/sql"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// EventRepository appends moderation events to feedback_events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.ModerationEvent) error {
	const q = `
		INSERT INTO feedback_events (feedback_id, status, actor_id, actor_role, had_image, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, q,
		event.FeedbackID,
		string(event.Status),
		event.ActorID,
		string(event.ActorRole),
		event.HadImage,
		event.Timestamp.UTC(),
	)
	return err
}
