package event

import (
	"time"

	"gorm.io/datatypes"
)

// ============================
// 🔷 Event status lifecycle
const (
	StatusDraft     = "DRAFT"
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusActive, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ============================
// 🔷 GORM Training Event Model
type Event struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"type:varchar(255);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	TrainingType   string         `gorm:"type:varchar(100);not null" json:"training_type"`
	Venue          string         `gorm:"type:text" json:"venue"`
	StartDateTime  time.Time      `gorm:"not null;index" json:"start_date_time"`
	EndDateTime    *time.Time     `json:"end_date_time,omitempty"`
	MaxCapacity    *int           `json:"max_capacity,omitempty"`
	TargetAudience datatypes.JSON `gorm:"type:jsonb" json:"target_audience"`
	Status         string         `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	LocalityID     uint           `gorm:"not null;index" json:"locality_id"`

	CreatedByDistrictAdminID *string `gorm:"type:varchar(36)" json:"created_by_district_admin_id,omitempty"`
	CreatedByLocalityAdminID *string `gorm:"type:varchar(36)" json:"created_by_locality_admin_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	RegisteredCount int `gorm:"-" json:"registered_count"`
}

func (Event) TableName() string {
	return "training_events"
}

// HasStarted reports whether the event's start moment has passed.
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartDateTime)
}

// ============================
// 🟡 Create Event Request
type CreateEventRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	TrainingType   string   `json:"training_type" binding:"required"`
	Venue          string   `json:"venue"`
	StartDateTime  string   `json:"start_date_time" binding:"required"` // 🛠 RFC3339
	EndDateTime    string   `json:"end_date_time,omitempty"`            // 🛠 RFC3339
	MaxCapacity    *int     `json:"max_capacity,omitempty"`
	TargetAudience []string `json:"target_audience" binding:"required"`
	LocalityID     uint     `json:"locality_id" binding:"required"`
	Status         string   `json:"status,omitempty"`
}

// ============================
// 🟠 Update Event Request
type UpdateEventRequest struct {
	ID             uint     `json:"-"`
	Title          *string  `json:"title,omitempty"`
	Description    *string  `json:"description,omitempty"`
	TrainingType   *string  `json:"training_type,omitempty"`
	Venue          *string  `json:"venue,omitempty"`
	StartDateTime  *string  `json:"start_date_time,omitempty"` // 🛠 RFC3339
	EndDateTime    *string  `json:"end_date_time,omitempty"`   // 🛠 RFC3339
	MaxCapacity    *int     `json:"max_capacity,omitempty"`
	TargetAudience []string `json:"target_audience,omitempty"`
	Status         *string  `json:"status,omitempty"`
}

// ============================
// 🔍 List Filter
type ListFilter struct {
	Status       string
	LocalityID   uint
	TrainingType string
	Audience     string
	Search       string
	FromDate     *time.Time
	ToDate       *time.Time
	UpcomingOnly bool
	Page         int
	Limit        int
}

type PaginatedEvents struct {
	Events     []Event `json:"events"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}
