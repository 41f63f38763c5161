package ports

import (
	"context"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// MediaInput is an optional image attached to a submission.
type MediaInput struct {
	Data         []byte
	OriginalName string
}

// SubmitFeedbackInput carries everything needed to create a feedback record.
type SubmitFeedbackInput struct {
	Message string
	Rating  int
	Image   *MediaInput // optional
}

// FeedbackService defines the feedback pipeline use cases.
type FeedbackService interface {
	Submit(ctx context.Context, session domain.Session, input SubmitFeedbackInput) (*domain.FeedbackRecord, error)
	List(ctx context.Context) ([]domain.FeedbackRecord, error)
	ListOwn(ctx context.Context, session domain.Session) ([]domain.FeedbackRecord, error)
	Delete(ctx context.Context, session domain.Session, id string) error
}
