package attendance

import (
	"time"

	"github.com/swachhsetu/training-backend/internal/directory"
)

// ============================
// 🔷 Presence status
const (
	PresencePresent = "PRESENT"
	PresenceAbsent  = "ABSENT"
	PresenceLate    = "LATE"
)

func ValidPresence(s string) bool {
	switch s {
	case PresencePresent, PresenceAbsent, PresenceLate:
		return true
	}
	return false
}

// ============================
// 🔷 Completion status ladder
const (
	CompletionNotCompleted = "NOT_COMPLETED"
	CompletionCompleted    = "COMPLETED"
	CompletionCertified    = "CERTIFIED"
)

func ValidCompletionOverride(s string) bool {
	// CERTIFIED is reachable only through certificate issuance
	return s == CompletionNotCompleted || s == CompletionCompleted
}

// ============================
// 🔷 GORM Attendance Model
// One row per (event, user); re-marking updates the row in place.
type Attendance struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	EventID          uint      `gorm:"not null;index:idx_att_event" json:"event_id"`
	CitizenID        *string   `gorm:"type:varchar(36);index:idx_att_citizen" json:"citizen_id,omitempty"`
	WorkerID         *string   `gorm:"type:varchar(36);index:idx_att_worker" json:"worker_id,omitempty"`
	UserKind         string    `gorm:"type:varchar(20);not null" json:"user_kind"`
	PresenceStatus   string    `gorm:"type:varchar(20);not null" json:"presence_status"`
	CompletionStatus string    `gorm:"type:varchar(20);not null;default:'NOT_COMPLETED';index" json:"completion_status"`
	CertificateRef   *string   `gorm:"type:varchar(100)" json:"certificate_ref,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Attendance) TableName() string {
	return "attendance_records"
}

func (a *Attendance) SetUser(ref directory.UserRef) {
	a.UserKind = string(ref.Kind)
	if ref.Kind == directory.KindWorker {
		a.WorkerID = &ref.ID
	} else {
		a.CitizenID = &ref.ID
	}
}

func (a *Attendance) UserRef() directory.UserRef {
	if a.UserKind == string(directory.KindWorker) && a.WorkerID != nil {
		return directory.UserRef{Kind: directory.KindWorker, ID: *a.WorkerID}
	}
	if a.CitizenID != nil {
		return directory.UserRef{Kind: directory.KindCitizen, ID: *a.CitizenID}
	}
	return directory.UserRef{}
}

// ============================
// 🟡 Mark Attendance Request
type MarkAttendanceRequest struct {
	UserKind         string `json:"user_kind" binding:"required"`
	UserID           string `json:"user_id" binding:"required"`
	PresenceStatus   string `json:"presence_status" binding:"required"`
	CompletionStatus string `json:"completion_status,omitempty"`
}

// ============================
// 📊 Projections
type EventAttendanceSummary struct {
	EventID         uint  `json:"event_id"`
	RegisteredCount int64 `json:"registered_count"`
	PresentCount    int64 `json:"present_count"`
	AbsentCount     int64 `json:"absent_count"`
	LateCount       int64 `json:"late_count"`
	CompletedCount  int64 `json:"completed_count"`
	CertifiedCount  int64 `json:"certified_count"`

	// Rates against the REGISTERED denominator, 0 when nobody registered.
	AttendanceRate float64 `json:"attendance_rate"`
	CompletionRate float64 `json:"completion_rate"`
}

// FillRates derives the percentage fields from the counts. PRESENT and LATE
// both count as attended.
func (s *EventAttendanceSummary) FillRates() {
	if s.RegisteredCount == 0 {
		s.AttendanceRate = 0
		s.CompletionRate = 0
		return
	}
	s.AttendanceRate = float64(s.PresentCount+s.LateCount) / float64(s.RegisteredCount) * 100
	s.CompletionRate = float64(s.CompletedCount) / float64(s.RegisteredCount) * 100
}

type EventAttendance struct {
	Summary EventAttendanceSummary `json:"summary"`
	Records []Attendance           `json:"records"`
}

// MissedUser is a registered user with no PRESENT/LATE mark for the event.
type MissedUser struct {
	User           directory.UserInfo `json:"user"`
	PresenceStatus string             `json:"presence_status"` // ABSENT or NOT_MARKED
}
