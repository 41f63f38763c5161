package ports

import (
	"context"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// IdentityService verifies credentials and registers new accounts.
// Both operations return domain.ErrInvalidCredentials-compatible errors on
// bad input so callers can surface the collaborator's message.
type IdentityService interface {
	Verify(ctx context.Context, email, credential string) (*domain.Identity, error)
	Register(ctx context.Context, email, credential string) (*domain.Identity, error)
}
