package reports

import (
	"time"
)

// Report types
const (
	ReportTypeLocalityCompliance = "locality_compliance"
	ReportTypeEventAttendance    = "event_attendance"
	ReportTypeReminderTargets    = "reminder_targets"
)

// Export formats
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

func ValidFormat(f string) bool {
	return f == FormatCSV || f == FormatExcel || f == FormatPDF
}

// ComplianceReportRow is one user line in a locality compliance export.
type ComplianceReportRow struct {
	UserID        string `json:"user_id"`
	UserKind      string `json:"user_kind"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ThisYearCount int    `json:"this_year_count"`
	AllTimeCount  int    `json:"all_time_count"`
	IsCompliant   bool   `json:"is_compliant"`
	Score         int    `json:"score"`
}

// AttendanceReportRow is one attendance line in an event export.
type AttendanceReportRow struct {
	UserID           string    `json:"user_id"`
	UserKind         string    `json:"user_kind"`
	PresenceStatus   string    `json:"presence_status"`
	CompletionStatus string    `json:"completion_status"`
	CertificateRef   string    `json:"certificate_ref"`
	MarkedAt         time.Time `json:"marked_at"`
}

// ReminderTargetRow is one user line in a reminder-target export.
type ReminderTargetRow struct {
	UserID      string `json:"user_id"`
	UserKind    string `json:"user_kind"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	LocalityID  uint   `json:"locality_id"`
}

// ReportData carries whichever row set the requested type needs.
type ReportData struct {
	Title           string
	ComplianceRows  []ComplianceReportRow
	AttendanceRows  []AttendanceReportRow
	ReminderTargets []ReminderTargetRow
}
