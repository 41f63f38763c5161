// Package session holds one client's authenticated identity and keeps it in
// sync with a persisted copy so it survives restarts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// Verifier checks credentials against the identity collaborator.
type Verifier interface {
	Verify(ctx context.Context, email, credential string) (*domain.Identity, error)
}

// Persister is the local persisted-session store.
type Persister interface {
	Save(ctx context.Context, identity domain.Identity) error
	// Load returns (nil, nil) when nothing is stored. A non-nil error means
	// the stored state is unreadable or malformed.
	Load(ctx context.Context) (*domain.Identity, error)
	Clear(ctx context.Context) error
}

// Store is a single client's session. It is never shared through package
// state; construct one per client and pass it where needed.
type Store struct {
	verifier  Verifier
	persister Persister
	log       zerolog.Logger

	mu       sync.RWMutex
	identity *domain.Identity
	isAdmin  bool
}

// New returns a logged-out Store. Call Restore to adopt a persisted identity.
func New(verifier Verifier, persister Persister, log zerolog.Logger) *Store {
	return &Store{verifier: verifier, persister: persister, log: log}
}

// Login verifies credentials and, on success, replaces the current identity
// and persists it. On failure the previous session is left untouched.
func (s *Store) Login(ctx context.Context, email, credential string) (*domain.Identity, error) {
	identity, err := s.verifier.Verify(ctx, email, credential)
	if err != nil {
		return nil, loginError(err)
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: no identity returned", domain.ErrAuthentication)
	}

	adopted := *identity
	adopted.Role = domain.ParseRole(string(adopted.Role))

	if err := s.persister.Save(ctx, adopted); err != nil {
		return nil, fmt.Errorf("session: persist identity: %w", err)
	}

	s.set(&adopted)
	s.log.Info().Str("user_id", adopted.ID).Str("role", string(adopted.Role)).Msg("session started")

	out := adopted
	return &out, nil
}

// loginError keeps ErrAuthentication for rejected credentials. Any other
// verifier failure means the identity collaborator could not answer.
func loginError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAuthentication):
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: verify credentials: %w", domain.ErrPersistence, err)
	}
}

// Logout clears the session and its persisted copy. Calling it while logged
// out is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	active := s.identity != nil
	s.mu.RUnlock()

	if err := s.persister.Clear(ctx); err != nil {
		if active {
			return fmt.Errorf("session: clear persisted identity: %w", err)
		}
		s.log.Debug().Err(err).Msg("clear without active session failed")
	}
	s.set(nil)
	return nil
}

// Restore adopts the persisted identity, if any, without re-verifying it.
// Malformed or unreadable state is treated as logged out.
func (s *Store) Restore(ctx context.Context) *domain.Identity {
	identity, err := s.persister.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable persisted session")
		s.set(nil)
		return nil
	}
	if identity == nil || identity.ID == "" {
		s.set(nil)
		return nil
	}

	adopted := *identity
	adopted.Role = domain.ParseRole(string(adopted.Role))
	s.set(&adopted)

	out := adopted
	return &out
}

// Current returns a snapshot of the session for authorization checks.
func (s *Store) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.Session{}
	}
	identity := *s.identity
	return domain.Session{Identity: &identity}
}

// Identity returns the current identity or nil.
func (s *Store) Identity() *domain.Identity {
	return s.Current().Identity
}

// IsAdmin is derived from the identity and never set on its own.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAdmin
}

func (s *Store) set(identity *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.isAdmin = identity != nil && identity.IsAdmin()
}
