package reports

import (
	"context"
	"fmt"

	"github.com/swachhsetu/training-backend/internal/attendance"
	"github.com/swachhsetu/training-backend/internal/compliance"
	"github.com/swachhsetu/training-backend/internal/reminder"
)

// Filter names the scope of a report request.
type Filter struct {
	LocalityID uint
	EventID    uint
	Year       int
}

type Service interface {
	Generate(ctx context.Context, reportType, format string, filter Filter) ([]byte, string, string, error)
}

type service struct {
	complianceSvc compliance.Service
	attendanceSvc attendance.Service
	reminderSvc   reminder.Service
	exporter      Exporter
}

func NewService(complianceSvc compliance.Service, attendanceSvc attendance.Service, reminderSvc reminder.Service, exporter Exporter) Service {
	return &service{
		complianceSvc: complianceSvc,
		attendanceSvc: attendanceSvc,
		reminderSvc:   reminderSvc,
		exporter:      exporter,
	}
}

func (s *service) Generate(ctx context.Context, reportType, format string, filter Filter) ([]byte, string, string, error) {
	data, err := s.gather(ctx, reportType, filter)
	if err != nil {
		return nil, "", "", err
	}
	return s.exporter.Export(reportType, format, *data)
}

func (s *service) gather(ctx context.Context, reportType string, filter Filter) (*ReportData, error) {
	switch reportType {
	case ReportTypeLocalityCompliance:
		report, err := s.complianceSvc.LocalityCompliance(ctx, filter.LocalityID, filter.Year)
		if err != nil {
			return nil, err
		}

		data := &ReportData{Title: fmt.Sprintf("Locality %d Compliance %d", report.LocalityID, report.Year)}
		for _, group := range [][]compliance.UserComplianceReport{report.CompliantUsers, report.NonCompliantUsers} {
			for _, u := range group {
				data.ComplianceRows = append(data.ComplianceRows, ComplianceReportRow{
					UserID:        u.User.ID,
					UserKind:      string(u.User.Kind),
					Name:          u.User.Name,
					Email:         u.User.Email,
					ThisYearCount: u.ThisYearCount,
					AllTimeCount:  u.AllTimeCount,
					IsCompliant:   u.IsCompliant,
					Score:         u.Score,
				})
			}
		}
		return data, nil

	case ReportTypeEventAttendance:
		result, err := s.attendanceSvc.GetEventAttendance(ctx, filter.EventID, "")
		if err != nil {
			return nil, err
		}

		data := &ReportData{Title: fmt.Sprintf("Event %d Attendance", filter.EventID)}
		for _, rec := range result.Records {
			certRef := ""
			if rec.CertificateRef != nil {
				certRef = *rec.CertificateRef
			}
			data.AttendanceRows = append(data.AttendanceRows, AttendanceReportRow{
				UserID:           rec.UserRef().ID,
				UserKind:         rec.UserKind,
				PresenceStatus:   rec.PresenceStatus,
				CompletionStatus: rec.CompletionStatus,
				CertificateRef:   certRef,
				MarkedAt:         rec.UpdatedAt,
			})
		}
		return data, nil

	case ReportTypeReminderTargets:
		selectFilter := reminder.SelectFilter{}
		if filter.LocalityID != 0 {
			id := filter.LocalityID
			selectFilter.LocalityID = &id
		}
		targets, err := s.reminderSvc.SelectTargets(ctx, selectFilter)
		if err != nil {
			return nil, err
		}

		data := &ReportData{Title: "Reminder Targets"}
		for _, t := range targets {
			data.ReminderTargets = append(data.ReminderTargets, ReminderTargetRow{
				UserID:      t.UserID,
				UserKind:    string(t.UserKind),
				Name:        t.Name,
				Email:       t.Email,
				PhoneNumber: t.PhoneNumber,
				LocalityID:  t.LocalityID,
			})
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unsupported report type: %s", reportType)
	}
}
