package ports

import (
	"context"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// AuditRepository persists moderation events to an append-only trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.ModerationEvent) error
}
