package domain

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":     RoleAdmin,
		" ADMIN ":   RoleUser,
		"Admin":     RoleUser,
		"user":      RoleUser,
		"":          RoleUser,
		"superuser": RoleUser,
		"client":    RoleUser,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIdentity_IsAdmin_UnknownRoleIsUser(t *testing.T) {
	if (Identity{Role: "root"}).IsAdmin() {
		t.Fatalf("unknown role must not be admin")
	}
	if !(Identity{Role: RoleAdmin}).IsAdmin() {
		t.Fatalf("admin role must be admin")
	}
}

func TestNormalizeRating(t *testing.T) {
	if got := NormalizeRating(0); got != DefaultRating {
		t.Fatalf("expected default %d, got %d", DefaultRating, got)
	}
	if got := NormalizeRating(3); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestFeedbackStatus_Transitions(t *testing.T) {
	if !StatusNonexistent.CanTransitionTo(StatusActive) {
		t.Fatalf("nonexistent -> active must be allowed")
	}
	if !StatusActive.CanTransitionTo(StatusDeleted) {
		t.Fatalf("active -> deleted must be allowed")
	}
	if StatusDeleted.CanTransitionTo(StatusActive) {
		t.Fatalf("deleted is terminal")
	}
	if StatusNonexistent.CanTransitionTo(StatusDeleted) {
		t.Fatalf("cannot delete a record that never existed")
	}
}

func TestDisplayNameFromEmail(t *testing.T) {
	if got := DisplayNameFromEmail("priya@example.com"); got != "priya" {
		t.Fatalf("unexpected display name %q", got)
	}
	if got := DisplayNameFromEmail("no-at-sign"); got != "no-at-sign" {
		t.Fatalf("unexpected display name %q", got)
	}
}
