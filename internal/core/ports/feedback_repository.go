package ports

import (
	"context"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// FeedbackRepository is the record store collaborator.
type FeedbackRepository interface {
	// Insert stores a new record. The store assigns ID and CreatedAt and
	// returns the stored copy.
	Insert(ctx context.Context, record *domain.FeedbackRecord) (*domain.FeedbackRecord, error)
	// ListAll returns every record ordered by CreatedAt descending, with
	// DisplayName joined from the author's account (empty when unresolvable).
	ListAll(ctx context.Context) ([]*domain.FeedbackRecord, error)
	// FindByID returns domain.ErrNotFound when no record matches.
	FindByID(ctx context.Context, id string) (*domain.FeedbackRecord, error)
	// DeleteByID returns domain.ErrNotFound when no record matches.
	DeleteByID(ctx context.Context, id string) error
}
