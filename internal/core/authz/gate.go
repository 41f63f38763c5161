// Package authz decides whether a session may perform an action.
package authz

import "github.com/deadwick/feedback-service/internal/core/domain"

// Action is a requested operation.
type Action string

const (
	ViewPublic         Action = "view_public"
	ViewOwnSubmissions Action = "view_own_submissions"
	SubmitFeedback     Action = "submit_feedback"
	ListAllFeedback    Action = "list_all_feedback"
	DeleteFeedback     Action = "delete_feedback"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

type requirement int

const (
	anyone requirement = iota
	authenticated
	admin
)

var rules = map[Action]requirement{
	ViewPublic:         anyone,
	ViewOwnSubmissions: authenticated,
	SubmitFeedback:     authenticated,
	ListAllFeedback:    admin,
	DeleteFeedback:     admin,
}

// Authorize is pure and synchronous. Unknown actions are denied.
func Authorize(session domain.Session, action Action) Decision {
	req, ok := rules[action]
	if !ok {
		return Deny
	}
	switch req {
	case anyone:
		return Allow
	case authenticated:
		if session.Authenticated() {
			return Allow
		}
	case admin:
		if session.Authenticated() && session.Identity.IsAdmin() {
			return Allow
		}
	}
	return Deny
}

// Allowed is shorthand for Authorize(...) == Allow.
func Allowed(session domain.Session, action Action) bool {
	return Authorize(session, action) == Allow
}
