package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/apperrors"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
)

// ============================
// In-memory fakes

type fakeRepo struct {
	completions   map[string][]QualifyingCompletion
	events        map[int]int64
	registrations map[int]int64
	attendances   map[int]int64
	analyticsRows []EventAnalyticsRow
}

func (f *fakeRepo) QualifyingCompletionsForUsers(ctx context.Context, kind directory.UserKind, ids []string) (map[string][]QualifyingCompletion, error) {
	out := map[string][]QualifyingCompletion{}
	for _, id := range ids {
		if qcs, ok := f.completions[id]; ok {
			out[id] = qcs
		}
	}
	return out, nil
}

func (f *fakeRepo) MonthlyEventCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error) {
	return f.events, nil
}

func (f *fakeRepo) MonthlyRegistrationCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error) {
	return f.registrations, nil
}

func (f *fakeRepo) MonthlyAttendanceCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error) {
	return f.attendances, nil
}

func (f *fakeRepo) EventAnalyticsRows(ctx context.Context, localityIDs []uint, from, to *time.Time) ([]EventAnalyticsRow, error) {
	if len(localityIDs) == 0 {
		return f.analyticsRows, nil
	}
	allowed := map[uint]bool{}
	for _, id := range localityIDs {
		allowed[id] = true
	}
	rows := []EventAnalyticsRow{}
	for _, row := range f.analyticsRows {
		if allowed[row.LocalityID] {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type fakeLearningRepo struct {
	counts map[string]int64
}

func (f *fakeLearningRepo) CountCompletedInRange(ctx context.Context, kind directory.UserKind, ids []string, from, to time.Time) (map[string]int64, error) {
	out := map[string]int64{}
	for _, id := range ids {
		out[id] = f.counts[id]
	}
	return out, nil
}

type fakeDirRepo struct {
	usersByLocality map[uint][]directory.UserInfo
	localities      []directory.Locality
}

func (f *fakeDirRepo) GetUser(ctx context.Context, ref directory.UserRef) (*directory.UserInfo, error) {
	for _, users := range f.usersByLocality {
		for _, u := range users {
			if u.ID == ref.ID && u.Kind == ref.Kind {
				return &u, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDirRepo) ListUsersByLocality(ctx context.Context, localityID uint) ([]directory.UserInfo, error) {
	return f.usersByLocality[localityID], nil
}
func (f *fakeDirRepo) ListUsersByKind(ctx context.Context, kind directory.UserKind, localityID *uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (f *fakeDirRepo) ListAllUsers(ctx context.Context, localityID *uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (f *fakeDirRepo) LocalityExists(ctx context.Context, localityID uint) (bool, error) {
	_, ok := f.usersByLocality[localityID]
	return ok, nil
}
func (f *fakeDirRepo) ListLocalities(ctx context.Context) ([]directory.Locality, error) {
	return f.localities, nil
}
func (f *fakeDirRepo) ListLocalitiesByDistrict(ctx context.Context, districtID uint) ([]directory.Locality, error) {
	return f.localities, nil
}
func (f *fakeDirRepo) DistrictExists(ctx context.Context, districtID uint) (bool, error) {
	return districtID == 1, nil
}
func (f *fakeDirRepo) DistrictAdminExists(ctx context.Context, id string) (bool, error) {
	return false, nil
}
func (f *fakeDirRepo) LocalityAdminExists(ctx context.Context, id string) (bool, error) {
	return false, nil
}

type fakeEventRepo struct {
	upcoming []event.Event
}

func (f *fakeEventRepo) Create(ctx context.Context, e *event.Event) error { return nil }
func (f *fakeEventRepo) GetByID(ctx context.Context, id uint) (*event.Event, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEventRepo) Update(ctx context.Context, e *event.Event) error { return nil }
func (f *fakeEventRepo) Delete(ctx context.Context, id uint) error        { return nil }
func (f *fakeEventRepo) List(ctx context.Context, filter event.ListFilter) (*event.PaginatedEvents, error) {
	return &event.PaginatedEvents{}, nil
}
func (f *fakeEventRepo) CountRegistered(ctx context.Context, eventID uint) (int64, error) {
	return 0, nil
}
func (f *fakeEventRepo) CountRegistrations(ctx context.Context, eventID uint) (int64, error) {
	return 0, nil
}
func (f *fakeEventRepo) CountAttendance(ctx context.Context, eventID uint) (int64, error) {
	return 0, nil
}
func (f *fakeEventRepo) ListUpcomingActive(ctx context.Context, from, to time.Time) ([]event.Event, error) {
	return f.upcoming, nil
}

// ============================
// Fixture helpers

func thisYearCompletion(eventID uint) QualifyingCompletion {
	return QualifyingCompletion{
		EventID:          eventID,
		Title:            "Training",
		StartDateTime:    time.Date(time.Now().UTC().Year(), time.February, 5, 10, 0, 0, 0, time.UTC),
		CompletionStatus: "COMPLETED",
	}
}

func lastYearCompletion(eventID uint) QualifyingCompletion {
	return QualifyingCompletion{
		EventID:          eventID,
		Title:            "Old Training",
		StartDateTime:    time.Date(time.Now().UTC().Year()-1, time.June, 5, 10, 0, 0, 0, time.UTC),
		CompletionStatus: "CERTIFIED",
	}
}

func user(id string, localityID uint) directory.UserInfo {
	return directory.UserInfo{ID: id, Kind: directory.KindCitizen, Name: id, LocalityID: localityID}
}

// ============================
// Per-user snapshot

func TestBuildUserReportCompliance(t *testing.T) {
	year := time.Now().UTC().Year()

	report := buildUserReport(user("a", 1), []QualifyingCompletion{thisYearCompletion(1), lastYearCompletion(2)}, 0, year)
	assert.True(t, report.IsCompliant)
	assert.Equal(t, 1, report.ThisYearCount)
	assert.Equal(t, 2, report.AllTimeCount)
	require.NotNil(t, report.MostRecent)
	assert.Equal(t, uint(1), report.MostRecent.EventID)

	report = buildUserReport(user("b", 1), []QualifyingCompletion{lastYearCompletion(2)}, 0, year)
	assert.False(t, report.IsCompliant, "last-year completions do not count")
}

func TestBuildUserReportScore(t *testing.T) {
	year := time.Now().UTC().Year()

	report := buildUserReport(user("a", 1), []QualifyingCompletion{thisYearCompletion(1)}, 2, year)
	assert.Equal(t, 70, report.Score) // 1*50 + 2*10

	capped := buildUserReport(user("a", 1), []QualifyingCompletion{
		thisYearCompletion(1), thisYearCompletion(2), thisYearCompletion(3),
	}, 0, year)
	assert.Equal(t, 100, capped.Score, "score is capped at 100")
}

// ============================
// Rate safety

func TestRateZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(5, 0))
	assert.InDelta(t, 33.33, Rate(1, 3), 0.01)
	assert.Equal(t, 100.0, Rate(4, 4))
}

// ============================
// Locality rollup

func newService(repo *fakeRepo, dir *fakeDirRepo, events *fakeEventRepo) Service {
	return NewService(repo, dir, events, &fakeLearningRepo{counts: map[string]int64{}}, nil)
}

func TestLocalityComplianceOneOfThree(t *testing.T) {
	repo := &fakeRepo{completions: map[string][]QualifyingCompletion{
		"a": {thisYearCompletion(1)},
	}}
	dir := &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{
		1: {user("a", 1), user("b", 1), user("c", 1)},
	}}

	svc := newService(repo, dir, &fakeEventRepo{})
	report, err := svc.LocalityCompliance(context.Background(), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalUsers)
	assert.Equal(t, 1, report.CompliantCount)
	assert.Equal(t, 2, report.NonCompliantCount)
	assert.InDelta(t, 33.33, report.ComplianceRate, 0.01)
	require.Len(t, report.CompliantUsers, 1)
	assert.Equal(t, "a", report.CompliantUsers[0].User.ID)
}

func TestLocalityComplianceEmptyPopulation(t *testing.T) {
	dir := &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{2: {}}}

	svc := newService(&fakeRepo{completions: map[string][]QualifyingCompletion{}}, dir, &fakeEventRepo{})
	report, err := svc.LocalityCompliance(context.Background(), 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalUsers)
	assert.Equal(t, 0.0, report.ComplianceRate)
}

func TestLocalityComplianceUnknownLocality(t *testing.T) {
	svc := newService(&fakeRepo{}, &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{}}, &fakeEventRepo{})

	_, err := svc.LocalityCompliance(context.Background(), 9, 0)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

// ============================
// District rollup

// A 100%-compliant one-person locality and a 0%-compliant three-person
// locality average to 50%, regardless of population sizes.
func TestDistrictComplianceUnweightedMean(t *testing.T) {
	repo := &fakeRepo{completions: map[string][]QualifyingCompletion{
		"solo": {thisYearCompletion(1)},
	}}
	dir := &fakeDirRepo{
		usersByLocality: map[uint][]directory.UserInfo{
			1: {user("solo", 1)},
			2: {user("x", 2), user("y", 2), user("z", 2)},
		},
		localities: []directory.Locality{
			{ID: 1, Name: "Small", DistrictID: 1},
			{ID: 2, Name: "Big", DistrictID: 1},
		},
	}

	svc := newService(repo, dir, &fakeEventRepo{})
	report, err := svc.DistrictCompliance(context.Background(), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalUsers)
	assert.Equal(t, 1, report.TotalCompliant)
	assert.Equal(t, 50.0, report.AverageComplianceRate)
	assert.Len(t, report.Localities, 2)
}

// ============================
// Monthly trend

func TestMonthlyTrendTwelveMonthsRateSafe(t *testing.T) {
	repo := &fakeRepo{
		completions:   map[string][]QualifyingCompletion{},
		events:        map[int]int64{3: 2},
		registrations: map[int]int64{3: 10},
		attendances:   map[int]int64{3: 5},
	}

	svc := newService(repo, &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{}}, &fakeEventRepo{})
	trend, err := svc.MonthlyTrend(context.Background(), TrendFilter{})
	require.NoError(t, err)
	require.Len(t, trend, 12)

	march := trend[2]
	assert.Equal(t, 3, march.Month)
	assert.Equal(t, int64(2), march.Events)
	assert.Equal(t, 50.0, march.AttendanceRate)

	january := trend[0]
	assert.Equal(t, int64(0), january.Registrations)
	assert.Equal(t, 0.0, january.AttendanceRate, "zero registrations must not produce NaN")
}

// ============================
// Alerts

func TestComplianceAlertSeverities(t *testing.T) {
	repo := &fakeRepo{completions: map[string][]QualifyingCompletion{
		"m1": {thisYearCompletion(1)},
	}}
	dir := &fakeDirRepo{
		usersByLocality: map[uint][]directory.UserInfo{
			1: {user("h1", 1), user("h2", 1)},  // 0% -> HIGH
			2: {user("m1", 2), user("m2", 2)}, // 50% -> MEDIUM
		},
		localities: []directory.Locality{
			{ID: 1, Name: "Low", DistrictID: 1},
			{ID: 2, Name: "Mid", DistrictID: 1},
		},
	}

	svc := newService(repo, dir, &fakeEventRepo{})
	alerts, err := svc.ComplianceAlerts(context.Background(), 70)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	bySeverity := map[string]Alert{}
	for _, a := range alerts {
		bySeverity[a.Severity] = a
	}
	assert.Equal(t, uint(1), bySeverity[SeverityHigh].LocalityID)
	assert.Equal(t, uint(2), bySeverity[SeverityMedium].LocalityID)
}

func TestUnderFilledEventAlert(t *testing.T) {
	capacity := 100
	events := &fakeEventRepo{upcoming: []event.Event{
		{ID: 7, Title: "Quiet Session", StartDateTime: time.Now().UTC().Add(48 * time.Hour), MaxCapacity: &capacity, RegisteredCount: 10},
		{ID: 8, Title: "Popular Session", StartDateTime: time.Now().UTC().Add(48 * time.Hour), MaxCapacity: &capacity, RegisteredCount: 80},
		{ID: 9, Title: "Unbounded Session", StartDateTime: time.Now().UTC().Add(48 * time.Hour), RegisteredCount: 0},
	}}

	svc := newService(&fakeRepo{completions: map[string][]QualifyingCompletion{}}, &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{}}, events)
	alerts, err := svc.ComplianceAlerts(context.Background(), 70)
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, AlertUnderFilledEvent, alerts[0].Type)
	assert.Equal(t, SeverityMedium, alerts[0].Severity)
	assert.Equal(t, uint(7), alerts[0].EventID)
	assert.Equal(t, 10.0, alerts[0].FillRate)
}

// ============================
// Reminder selector input

func TestThisYearCounts(t *testing.T) {
	repo := &fakeRepo{completions: map[string][]QualifyingCompletion{
		"a": {thisYearCompletion(1), lastYearCompletion(2)},
		"b": {lastYearCompletion(3)},
	}}

	svc := newService(repo, &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{}}, &fakeEventRepo{})
	counts, err := svc.ThisYearCounts(context.Background(), directory.KindCitizen, []string{"a", "b", "c"}, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["a"])
	assert.Equal(t, 0, counts["b"])
	assert.Equal(t, 0, counts["c"])
}

// ============================
// Per-event analytics

func analyticsRow(eventID uint, localityID uint, registered, attended, completed int64) EventAnalyticsRow {
	row := EventAnalyticsRow{
		EventID:    eventID,
		Title:      "Session",
		LocalityID: localityID,
		Registered: registered,
		Attended:   attended,
		Completed:  completed,
	}
	row.AttendanceRate = Rate(attended, registered)
	row.CompletionRate = Rate(completed, registered)
	return row
}

func TestTrainingAnalyticsSummary(t *testing.T) {
	repo := &fakeRepo{analyticsRows: []EventAnalyticsRow{
		analyticsRow(1, 1, 10, 8, 5),
		analyticsRow(2, 2, 20, 10, 5),
	}}

	svc := newService(repo, &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{}}, &fakeEventRepo{})
	summary, err := svc.TrainingAnalytics(context.Background(), AnalyticsFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalEvents)
	assert.Equal(t, int64(30), summary.TotalRegistrations)
	assert.Equal(t, int64(18), summary.TotalAttendances)
	assert.Equal(t, int64(10), summary.TotalCompleted)
	assert.Equal(t, 65.0, summary.AverageAttendanceRate, "mean of 80 and 50 percent")
	assert.InDelta(t, 33.33, summary.CompletionRate, 0.01)
}

func TestTrainingAnalyticsLocalityFilter(t *testing.T) {
	repo := &fakeRepo{analyticsRows: []EventAnalyticsRow{
		analyticsRow(1, 1, 10, 8, 5),
		analyticsRow(2, 2, 20, 10, 5),
	}}
	dir := &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{1: {}}}

	svc := newService(repo, dir, &fakeEventRepo{})
	summary, err := svc.LocalityAttendanceReport(context.Background(), 1, nil, nil)
	require.NoError(t, err)

	require.Len(t, summary.Events, 1)
	assert.Equal(t, uint(1), summary.Events[0].EventID)
	assert.Equal(t, 80.0, summary.AverageAttendanceRate)

	_, err = svc.TrainingAnalytics(context.Background(), AnalyticsFilter{LocalityID: 9})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestTrainingAnalyticsEmptyWindow(t *testing.T) {
	svc := newService(&fakeRepo{}, &fakeDirRepo{usersByLocality: map[uint][]directory.UserInfo{}}, &fakeEventRepo{})

	summary, err := svc.TrainingAnalytics(context.Background(), AnalyticsFilter{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalEvents)
	assert.Equal(t, 0.0, summary.AverageAttendanceRate)
	assert.Equal(t, 0.0, summary.CompletionRate)
}
