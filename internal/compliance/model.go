package compliance

import (
	"time"

	"github.com/swachhsetu/training-backend/internal/directory"
)

// Scoring weights for the composite compliance score, capped at 100.
const (
	trainingScoreWeight = 50
	learningScoreWeight = 10
	maxScore            = 100
)

// Alert severities
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Alert types
const (
	AlertLowCompliance    = "LOW_COMPLIANCE"
	AlertUnderFilledEvent = "UNDER_FILLED_EVENT"
)

// QualifyingCompletion is one COMPLETED/CERTIFIED attendance joined to its
// event; events are attributed to the year of their start instant.
type QualifyingCompletion struct {
	EventID          uint      `json:"event_id"`
	Title            string    `json:"title"`
	StartDateTime    time.Time `json:"start_date_time"`
	CompletionStatus string    `json:"completion_status"`
}

// UserComplianceReport is the per-user snapshot, computed on demand.
type UserComplianceReport struct {
	User          directory.UserInfo    `json:"user"`
	Year          int                   `json:"year"`
	ThisYearCount int                   `json:"this_year_count"`
	AllTimeCount  int                   `json:"all_time_count"`
	IsCompliant   bool                  `json:"is_compliant"`
	Score         int                   `json:"score"`
	MostRecent    *QualifyingCompletion `json:"most_recent,omitempty"`
}

type LocalityComplianceReport struct {
	LocalityID        uint                   `json:"locality_id"`
	Year              int                    `json:"year"`
	TotalUsers        int                    `json:"total_users"`
	CompliantCount    int                    `json:"compliant_count"`
	NonCompliantCount int                    `json:"non_compliant_count"`
	ComplianceRate    float64                `json:"compliance_rate"`
	CompliantUsers    []UserComplianceReport `json:"compliant_users"`
	NonCompliantUsers []UserComplianceReport `json:"non_compliant_users"`
}

// LocalitySummary is the compact per-locality row inside a district report.
type LocalitySummary struct {
	LocalityID     uint    `json:"locality_id"`
	Name           string  `json:"name"`
	TotalUsers     int     `json:"total_users"`
	CompliantCount int     `json:"compliant_count"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// DistrictComplianceReport aggregates locality snapshots. The average is an
// unweighted mean of locality rates, not a population-weighted rate.
type DistrictComplianceReport struct {
	DistrictID            uint              `json:"district_id"`
	Year                  int               `json:"year"`
	TotalUsers            int               `json:"total_users"`
	TotalCompliant        int               `json:"total_compliant"`
	AverageComplianceRate float64           `json:"average_compliance_rate"`
	Localities            []LocalitySummary `json:"localities"`
}

type MonthlyTrendPoint struct {
	Month          int     `json:"month"`
	Events         int64   `json:"events"`
	Registrations  int64   `json:"registrations"`
	Attendances    int64   `json:"attendances"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type TrendFilter struct {
	LocalityID uint
	Year       int
}

// AnalyticsFilter narrows the per-event analytics. DistrictID expands to the
// district's localities before the query runs.
type AnalyticsFilter struct {
	LocalityID uint
	DistrictID uint
	From       *time.Time
	To         *time.Time
}

// EventAnalyticsRow is one event's registration/attendance outcome. Attended
// counts PRESENT and LATE marks; rates use the REGISTERED denominator.
type EventAnalyticsRow struct {
	EventID        uint      `json:"event_id"`
	Title          string    `json:"title"`
	StartDateTime  time.Time `json:"start_date_time"`
	LocalityID     uint      `json:"locality_id"`
	Registered     int64     `json:"registered"`
	Attended       int64     `json:"attended"`
	Completed      int64     `json:"completed"`
	AttendanceRate float64   `json:"attendance_rate"`
	CompletionRate float64   `json:"completion_rate"`
}

// AnalyticsSummary aggregates the rows: totals plus the unweighted mean of
// per-event attendance rates.
type AnalyticsSummary struct {
	TotalEvents           int                 `json:"total_events"`
	TotalRegistrations    int64               `json:"total_registrations"`
	TotalAttendances      int64               `json:"total_attendances"`
	TotalCompleted        int64               `json:"total_completed"`
	AverageAttendanceRate float64             `json:"average_attendance_rate"`
	CompletionRate        float64             `json:"completion_rate"`
	Events                []EventAnalyticsRow `json:"events"`
}

type Alert struct {
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	LocalityID     uint    `json:"locality_id,omitempty"`
	EventID        uint    `json:"event_id,omitempty"`
	Message        string  `json:"message"`
	ComplianceRate float64 `json:"compliance_rate,omitempty"`
	FillRate       float64 `json:"fill_rate,omitempty"`
}

// Rate returns numerator/denominator as a percentage, 0 when the
// denominator is 0.
func Rate(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}
