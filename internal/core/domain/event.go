package domain

import "time"

// ModerationEvent is an audit trail entry for a feedback lifecycle transition.
type ModerationEvent struct {
	FeedbackID string
	Status     FeedbackStatus
	ActorID    string
	ActorRole  Role
	HadImage   bool
	Timestamp  time.Time
}
