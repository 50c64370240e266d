package registration

import (
	"time"

	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
)

// ============================
// 🔷 Registration status
const (
	StatusRegistered = "REGISTERED"
	StatusCancelled  = "CANCELLED"
	StatusWaitlisted = "WAITLISTED"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusRegistered, StatusCancelled, StatusWaitlisted:
		return true
	}
	return false
}

// ============================
// 🔷 GORM Registration Model
// Exactly one of CitizenID/WorkerID is set, selected by UserKind.
type Registration struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EventID      uint      `gorm:"not null;index:idx_reg_event" json:"event_id"`
	CitizenID    *string   `gorm:"type:varchar(36);index:idx_reg_citizen" json:"citizen_id,omitempty"`
	WorkerID     *string   `gorm:"type:varchar(36);index:idx_reg_worker" json:"worker_id,omitempty"`
	UserKind     string    `gorm:"type:varchar(20);not null" json:"user_kind"`
	Status       string    `gorm:"type:varchar(20);not null;default:'REGISTERED';index" json:"status"`
	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Registration) TableName() string {
	return "registrations"
}

// SetUser stores the tagged union reference onto the row columns.
func (r *Registration) SetUser(ref directory.UserRef) {
	r.UserKind = string(ref.Kind)
	if ref.Kind == directory.KindWorker {
		r.WorkerID = &ref.ID
	} else {
		r.CitizenID = &ref.ID
	}
}

// UserRef rebuilds the tagged union from the row columns.
func (r *Registration) UserRef() directory.UserRef {
	if r.UserKind == string(directory.KindWorker) && r.WorkerID != nil {
		return directory.UserRef{Kind: directory.KindWorker, ID: *r.WorkerID}
	}
	if r.CitizenID != nil {
		return directory.UserRef{Kind: directory.KindCitizen, ID: *r.CitizenID}
	}
	return directory.UserRef{}
}

// ============================
// 🟡 Register Request
type RegisterRequest struct {
	EventID  uint   `json:"event_id" binding:"required"`
	UserKind string `json:"user_kind,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// ============================
// 🔍 Joined projections
type RegistrationWithEvent struct {
	Registration
	Event event.Event `json:"event"`
}

type RegistrationView struct {
	Registration Registration        `json:"registration"`
	Event        EventSummary        `json:"event"`
	User         *directory.UserInfo `json:"user,omitempty"`
}

// EventSummary is the compact event view attached to registration responses.
type EventSummary struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	StartDateTime   time.Time  `json:"start_date_time"`
	EndDateTime     *time.Time `json:"end_date_time,omitempty"`
	Venue           string     `json:"venue"`
	MaxCapacity     *int       `json:"max_capacity,omitempty"`
	RegisteredCount int        `json:"registered_count"`
}

// ConflictingEvent describes one schedule clash in a TIME_CONFLICT error.
type ConflictingEvent struct {
	EventID       uint       `json:"event_id"`
	Title         string     `json:"title"`
	StartDateTime time.Time  `json:"start_date_time"`
	EndDateTime   *time.Time `json:"end_date_time,omitempty"`
}

// ============================
// 🔍 List Filter
type ListFilter struct {
	Status       string
	UpcomingOnly bool
}
