package domain

import "time"

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = MaxRating

	// AnonymousName is shown when a record's author has no resolvable display name.
	AnonymousName = "Anonymous"
)

// FeedbackStatus is the lifecycle state of a feedback record.
type FeedbackStatus string

const (
	StatusNonexistent FeedbackStatus = "nonexistent"
	StatusActive      FeedbackStatus = "active"
	StatusDeleted     FeedbackStatus = "deleted"
)

// validTransitions defines the allowed state machine transitions. Records are
// never edited; deleted is terminal.
var validTransitions = map[FeedbackStatus][]FeedbackStatus{
	StatusNonexistent: {StatusActive},
	StatusActive:      {StatusDeleted},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s FeedbackStatus) CanTransitionTo(next FeedbackStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FeedbackRecord is a rated, optionally image-attached message.
type FeedbackRecord struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	DisplayName string    `json:"display_name"`
	Message     string    `json:"message"`
	Rating      int       `json:"rating"`
	ImageRef    string    `json:"image_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasImage reports whether the record references an uploaded blob.
func (r FeedbackRecord) HasImage() bool {
	return r.ImageRef != ""
}

// NormalizeRating applies the read-side default: a missing (zero) rating is
// shown as DefaultRating.
func NormalizeRating(r int) int {
	if r == 0 {
		return DefaultRating
	}
	return r
}

// ResolveDisplayName falls back to AnonymousName for blank names.
func ResolveDisplayName(name string) string {
	if name == "" {
		return AnonymousName
	}
	return name
}

// ValidRating reports whether r is an acceptable submitted rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
