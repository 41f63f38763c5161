package domain

import (
	"strings"
	"time"
)

// Role gates privileged actions. Only two values exist.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps any stored or claimed role value onto one of the two known
// roles. Anything that is not exactly "admin" is a plain user; case and
// whitespace variants do not grant privilege.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Identity is an authenticated principal as returned by the identity collaborator.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
	// Token is an opaque bearer credential handed out by a remote identity
	// provider. Empty when credentials were verified in-process.
	Token string `json:"token,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return ParseRole(string(i.Role)) == RoleAdmin
}

// Session is a value snapshot of a client's authenticated state.
// A nil Identity means logged out.
type Session struct {
	Identity *Identity
}

// Authenticated reports whether the session has an identity.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// User is the persisted account backing an Identity.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the account onto the principal shape used by sessions.
func (u *User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		Email:       u.Email,
		Role:        ParseRole(string(u.Role)),
		DisplayName: u.DisplayName,
	}
}

// DisplayNameFromEmail derives the default public name from an email address.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}
