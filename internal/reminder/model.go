package reminder

import (
	"time"

	"github.com/swachhsetu/training-backend/internal/directory"
)

// Target is one user selected for a compliance reminder: zero qualifying
// completions in the current calendar year.
type Target struct {
	UserID      string             `json:"user_id"`
	UserKind    directory.UserKind `json:"user_kind"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	PhoneNumber string             `json:"phone_number"`
	LocalityID  uint               `json:"locality_id"`
	Year        int                `json:"year"`
}

// Message is the payload handed to the notifier topic per target.
type Message struct {
	Target     Target    `json:"target"`
	Reason     string    `json:"reason"`
	SelectedAt time.Time `json:"selected_at"`
}

// SelectFilter narrows the candidate population.
type SelectFilter struct {
	LocalityID *uint
	UserKind   *directory.UserKind
}
