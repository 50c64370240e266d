package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/apperrors"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
	"github.com/swachhsetu/training-backend/internal/learning"
)

type Service interface {
	UserCompliance(ctx context.Context, ref directory.UserRef, year int) (*UserComplianceReport, error)
	LocalityCompliance(ctx context.Context, localityID uint, year int) (*LocalityComplianceReport, error)
	DistrictCompliance(ctx context.Context, districtID uint, year int) (*DistrictComplianceReport, error)
	MonthlyTrend(ctx context.Context, filter TrendFilter) ([]MonthlyTrendPoint, error)
	ComplianceAlerts(ctx context.Context, threshold float64) ([]Alert, error)
	TrainingAnalytics(ctx context.Context, filter AnalyticsFilter) (*AnalyticsSummary, error)
	LocalityAttendanceReport(ctx context.Context, localityID uint, from, to *time.Time) (*AnalyticsSummary, error)

	// ThisYearCounts exposes per-user qualifying-completion counts for the
	// reminder selector.
	ThisYearCounts(ctx context.Context, kind directory.UserKind, ids []string, year int) (map[string]int, error)
}

type service struct {
	repo         Repository
	dirRepo      directory.Repository
	eventRepo    event.Repository
	learningRepo learning.Repository
	cache        *Cache
}

func NewService(repo Repository, dirRepo directory.Repository, eventRepo event.Repository, learningRepo learning.Repository, cache *Cache) Service {
	return &service{
		repo:         repo,
		dirRepo:      dirRepo,
		eventRepo:    eventRepo,
		learningRepo: learningRepo,
		cache:        cache,
	}
}

func normalizeYear(year int) int {
	if year == 0 {
		return time.Now().UTC().Year()
	}
	return year
}

// inYear attributes a completion to the calendar year of its event's start.
func inYear(qc QualifyingCompletion, year int) bool {
	return qc.StartDateTime.UTC().Year() == year
}

// buildUserReport derives the snapshot for one user from the batched rows.
func buildUserReport(user directory.UserInfo, completions []QualifyingCompletion, learningCount int64, year int) UserComplianceReport {
	thisYear := 0
	var mostRecent *QualifyingCompletion
	for i := range completions {
		if mostRecent == nil || completions[i].StartDateTime.After(mostRecent.StartDateTime) {
			mostRecent = &completions[i]
		}
		if inYear(completions[i], year) {
			thisYear++
		}
	}

	score := thisYear*trainingScoreWeight + int(learningCount)*learningScoreWeight
	if score > maxScore {
		score = maxScore
	}

	return UserComplianceReport{
		User:          user,
		Year:          year,
		ThisYearCount: thisYear,
		AllTimeCount:  len(completions),
		IsCompliant:   thisYear >= 1,
		Score:         score,
		MostRecent:    mostRecent,
	}
}

// ===========================
// 👤 Per-user snapshot
func (s *service) UserCompliance(ctx context.Context, ref directory.UserRef, year int) (*UserComplianceReport, error) {
	year = normalizeYear(year)

	user, err := s.dirRepo.GetUser(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}

	cacheKey := fmt.Sprintf("user:%s:%s:%d", ref.Kind, ref.ID, year)
	var cached UserComplianceReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	reports, err := s.buildReports(ctx, []directory.UserInfo{*user}, year)
	if err != nil {
		return nil, err
	}
	report := reports[0]

	_ = s.cache.Set(ctx, cacheKey, report)
	return &report, nil
}

// buildReports resolves completions and learning counts in one batch per
// user kind, then derives the per-user snapshots.
func (s *service) buildReports(ctx context.Context, users []directory.UserInfo, year int) ([]UserComplianceReport, error) {
	byKind := map[directory.UserKind][]string{}
	for _, u := range users {
		byKind[u.Kind] = append(byKind[u.Kind], u.ID)
	}

	from, to := yearWindow(year)
	completions := map[directory.UserKind]map[string][]QualifyingCompletion{}
	learningCounts := map[directory.UserKind]map[string]int64{}
	for kind, ids := range byKind {
		qc, err := s.repo.QualifyingCompletionsForUsers(ctx, kind, ids)
		if err != nil {
			return nil, err
		}
		completions[kind] = qc

		lc, err := s.learningRepo.CountCompletedInRange(ctx, kind, ids, from, to)
		if err != nil {
			return nil, err
		}
		learningCounts[kind] = lc
	}

	reports := make([]UserComplianceReport, 0, len(users))
	for _, u := range users {
		reports = append(reports, buildUserReport(u, completions[u.Kind][u.ID], learningCounts[u.Kind][u.ID], year))
	}
	return reports, nil
}

// ===========================
// 🏘 Locality rollup
func (s *service) LocalityCompliance(ctx context.Context, localityID uint, year int) (*LocalityComplianceReport, error) {
	year = normalizeYear(year)

	exists, err := s.dirRepo.LocalityExists(ctx, localityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("locality not found")
	}

	cacheKey := fmt.Sprintf("locality:%d:%d", localityID, year)
	var cached LocalityComplianceReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	report, err := s.computeLocality(ctx, localityID, year)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, cacheKey, report)
	return report, nil
}

func (s *service) computeLocality(ctx context.Context, localityID uint, year int) (*LocalityComplianceReport, error) {
	users, err := s.dirRepo.ListUsersByLocality(ctx, localityID)
	if err != nil {
		return nil, err
	}

	reports, err := s.buildReports(ctx, users, year)
	if err != nil {
		return nil, err
	}

	result := &LocalityComplianceReport{
		LocalityID:        localityID,
		Year:              year,
		TotalUsers:        len(users),
		CompliantUsers:    []UserComplianceReport{},
		NonCompliantUsers: []UserComplianceReport{},
	}
	for _, r := range reports {
		if r.IsCompliant {
			result.CompliantUsers = append(result.CompliantUsers, r)
		} else {
			result.NonCompliantUsers = append(result.NonCompliantUsers, r)
		}
	}
	result.CompliantCount = len(result.CompliantUsers)
	result.NonCompliantCount = len(result.NonCompliantUsers)
	result.ComplianceRate = Rate(int64(result.CompliantCount), int64(result.TotalUsers))

	return result, nil
}

// ===========================
// 🏙 District rollup — unweighted mean of locality rates
func (s *service) DistrictCompliance(ctx context.Context, districtID uint, year int) (*DistrictComplianceReport, error) {
	year = normalizeYear(year)

	exists, err := s.dirRepo.DistrictExists(ctx, districtID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("district not found")
	}

	cacheKey := fmt.Sprintf("district:%d:%d", districtID, year)
	var cached DistrictComplianceReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	localities, err := s.dirRepo.ListLocalitiesByDistrict(ctx, districtID)
	if err != nil {
		return nil, err
	}

	report := &DistrictComplianceReport{
		DistrictID: districtID,
		Year:       year,
		Localities: []LocalitySummary{},
	}

	var rateSum float64
	for _, loc := range localities {
		locReport, err := s.computeLocality(ctx, loc.ID, year)
		if err != nil {
			return nil, err
		}
		report.Localities = append(report.Localities, LocalitySummary{
			LocalityID:     loc.ID,
			Name:           loc.Name,
			TotalUsers:     locReport.TotalUsers,
			CompliantCount: locReport.CompliantCount,
			ComplianceRate: locReport.ComplianceRate,
		})
		report.TotalUsers += locReport.TotalUsers
		report.TotalCompliant += locReport.CompliantCount
		rateSum += locReport.ComplianceRate
	}

	if len(localities) > 0 {
		report.AverageComplianceRate = rateSum / float64(len(localities))
	}

	_ = s.cache.Set(ctx, cacheKey, report)
	return report, nil
}

// ===========================
// 📅 Monthly trend for the 12 months of one calendar year
func (s *service) MonthlyTrend(ctx context.Context, filter TrendFilter) ([]MonthlyTrendPoint, error) {
	filter.Year = normalizeYear(filter.Year)

	events, err := s.repo.MonthlyEventCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	registrations, err := s.repo.MonthlyRegistrationCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	attendances, err := s.repo.MonthlyAttendanceCounts(ctx, filter)
	if err != nil {
		return nil, err
	}

	trend := make([]MonthlyTrendPoint, 0, 12)
	for month := 1; month <= 12; month++ {
		point := MonthlyTrendPoint{
			Month:         month,
			Events:        events[month],
			Registrations: registrations[month],
			Attendances:   attendances[month],
		}
		point.AttendanceRate = Rate(point.Attendances, point.Registrations)
		trend = append(trend, point)
	}
	return trend, nil
}

// ===========================
// 🚨 Alerts: low-compliance localities and under-filled upcoming events
func (s *service) ComplianceAlerts(ctx context.Context, threshold float64) ([]Alert, error) {
	if threshold <= 0 || threshold > 100 {
		threshold = 70
	}
	year := time.Now().UTC().Year()

	localities, err := s.dirRepo.ListLocalities(ctx)
	if err != nil {
		return nil, err
	}

	alerts := []Alert{}
	for _, loc := range localities {
		report, err := s.computeLocality(ctx, loc.ID, year)
		if err != nil {
			return nil, err
		}
		if report.ComplianceRate >= threshold {
			continue
		}

		severity := SeverityLow
		switch {
		case report.ComplianceRate < 50:
			severity = SeverityHigh
		case report.ComplianceRate < 70:
			severity = SeverityMedium
		}

		alerts = append(alerts, Alert{
			Type:           AlertLowCompliance,
			Severity:       severity,
			LocalityID:     loc.ID,
			Message:        fmt.Sprintf("locality %s compliance rate %.1f%% is below %.1f%%", loc.Name, report.ComplianceRate, threshold),
			ComplianceRate: report.ComplianceRate,
		})
	}

	now := time.Now().UTC()
	upcoming, err := s.eventRepo.ListUpcomingActive(ctx, now, now.Add(7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	for _, ev := range upcoming {
		if ev.MaxCapacity == nil || *ev.MaxCapacity == 0 {
			continue
		}
		fillRate := Rate(int64(ev.RegisteredCount), int64(*ev.MaxCapacity))
		if fillRate >= 50 {
			continue
		}
		alerts = append(alerts, Alert{
			Type:     AlertUnderFilledEvent,
			Severity: SeverityMedium,
			EventID:  ev.ID,
			Message:  fmt.Sprintf("event %q starting %s is only %.1f%% filled", ev.Title, ev.StartDateTime.Format(time.RFC3339), fillRate),
			FillRate: fillRate,
		})
	}

	return alerts, nil
}

// ===========================
// 📈 Per-event analytics: outcome counts and rates across an event window
func (s *service) TrainingAnalytics(ctx context.Context, filter AnalyticsFilter) (*AnalyticsSummary, error) {
	var localityIDs []uint
	switch {
	case filter.LocalityID != 0:
		exists, err := s.dirRepo.LocalityExists(ctx, filter.LocalityID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NotFound("locality not found")
		}
		localityIDs = []uint{filter.LocalityID}
	case filter.DistrictID != 0:
		exists, err := s.dirRepo.DistrictExists(ctx, filter.DistrictID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NotFound("district not found")
		}
		localities, err := s.dirRepo.ListLocalitiesByDistrict(ctx, filter.DistrictID)
		if err != nil {
			return nil, err
		}
		if len(localities) == 0 {
			return &AnalyticsSummary{Events: []EventAnalyticsRow{}}, nil
		}
		for _, loc := range localities {
			localityIDs = append(localityIDs, loc.ID)
		}
	}

	rows, err := s.repo.EventAnalyticsRows(ctx, localityIDs, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	return summarizeRows(rows), nil
}

func (s *service) LocalityAttendanceReport(ctx context.Context, localityID uint, from, to *time.Time) (*AnalyticsSummary, error) {
	return s.TrainingAnalytics(ctx, AnalyticsFilter{LocalityID: localityID, From: from, To: to})
}

func summarizeRows(rows []EventAnalyticsRow) *AnalyticsSummary {
	summary := &AnalyticsSummary{
		TotalEvents: len(rows),
		Events:      rows,
	}
	var rateSum float64
	for _, row := range rows {
		summary.TotalRegistrations += row.Registered
		summary.TotalAttendances += row.Attended
		summary.TotalCompleted += row.Completed
		rateSum += row.AttendanceRate
	}
	if len(rows) > 0 {
		summary.AverageAttendanceRate = rateSum / float64(len(rows))
	}
	summary.CompletionRate = Rate(summary.TotalCompleted, summary.TotalRegistrations)
	return summary
}

// ===========================
// 🔢 This-year qualifying counts, batched for the reminder selector
func (s *service) ThisYearCounts(ctx context.Context, kind directory.UserKind, ids []string, year int) (map[string]int, error) {
	year = normalizeYear(year)

	completions, err := s.repo.QualifyingCompletionsForUsers(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		n := 0
		for _, qc := range completions[id] {
			if inYear(qc, year) {
				n++
			}
		}
		counts[id] = n
	}
	return counts, nil
}
