package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration and credential verification.
type AuthService struct {
	repo ports.UserRepository
	cost int
}

func NewAuthService(repo ports.UserRepository) *AuthService {
	return &AuthService{repo: repo, cost: bcrypt.DefaultCost}
}

// Register creates a plain user account. The display name defaults to the
// local part of the email address.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.Identity, error) {
	user, err := s.CreateUser(ctx, email, password, domain.RoleUser, "")
	if err != nil {
		return nil, err
	}
	identity := user.Identity()
	return &identity, nil
}

// CreateUser stores a new account with an explicit role. Used by Register
// and by the bootstrap seeder.
func (s *AuthService) CreateUser(ctx context.Context, email, password string, role domain.Role, displayName string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email must be a valid address", domain.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	if displayName == "" {
		displayName = domain.DisplayNameFromEmail(email)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         domain.ParseRole(string(role)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, user)
}

// Verify checks an email/password pair and returns the account's identity.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	identity := user.Identity()
	return &identity, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
