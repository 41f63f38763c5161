package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.users[user.Email] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func newTestAuthService(repo *stubUserRepo) *AuthService {
	svc := NewAuthService(repo)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	id, err := svc.Register(context.Background(), " Priya@Example.com ", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if id.Email != "priya@example.com" {
		t.Fatalf("email not normalised: %q", id.Email)
	}
	if id.Role != domain.RoleUser {
		t.Fatalf("register must create plain users, got %q", id.Role)
	}
	if id.DisplayName != "priya" {
		t.Fatalf("unexpected display name %q", id.DisplayName)
	}
	if id.ID == "" {
		t.Fatalf("expected generated id")
	}

	stored := repo.users["priya@example.com"]
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	cases := []struct{ email, password string }{
		{"", "pass123"},
		{"bob@example.com", ""},
		{"not-an-email", "pass123"},
		{"bob@example.com", "123"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(context.Background(), tc.email, tc.password); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Register(%q, %q): expected ErrValidation, got %v", tc.email, tc.password, err)
		}
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	_, _ = svc.Register(context.Background(), "bob@example.com", "pass123")
	if _, err := svc.Register(context.Background(), "bob@example.com", "pass456"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_CreateUser_AdminRole(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	u, err := svc.CreateUser(context.Background(), "root@example.com", "s3cret!", domain.RoleAdmin, "Moderator")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Role != domain.RoleAdmin || u.DisplayName != "Moderator" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestAuthService_Verify_Success(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	if _, err := svc.CreateUser(context.Background(), "carol@example.com", "s3cret!", domain.RoleAdmin, ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	id, err := svc.Verify(context.Background(), "CAROL@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if id.Email != "carol@example.com" || !id.IsAdmin() {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestAuthService_Verify_InvalidPassword(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	_, _ = svc.Register(context.Background(), "dave@example.com", "goodpass")
	if _, err := svc.Verify(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Verify_UserNotFound(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	if _, err := svc.Verify(context.Background(), "ghost@example.com", "pass"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, expires, err := issuer.Issue("sid-1", domain.Identity{ID: "u1", Email: "a@example.com", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expiry in the past: %v", expires)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SessionID != "sid-1" || claims.Subject != "u1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenIssuer_RejectsForeignSecretAndExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other", time.Hour)

	token, _, _ := other.Issue("sid-1", domain.Identity{ID: "u1"})
	if _, err := issuer.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	expired := &TokenIssuer{secret: []byte("secret"), ttl: -time.Minute}
	token, _, _ = expired.Issue("sid-1", domain.Identity{ID: "u1"})
	if _, err := issuer.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := issuer.Parse("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
