package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/apperrors"
	"github.com/swachhsetu/training-backend/internal/auditlog"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
	"github.com/swachhsetu/training-backend/internal/registration"
)

// ============================
// In-memory fakes

type fakeRepo struct {
	records []*Attendance
	nextID  uint
}

func (f *fakeRepo) FindByUserAndEvent(ctx context.Context, ref directory.UserRef, eventID uint) (*Attendance, error) {
	for _, a := range f.records {
		if a.EventID == eventID && a.UserRef() == ref {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Create(ctx context.Context, a *Attendance) error {
	f.nextID++
	a.ID = f.nextID
	f.records = append(f.records, a)
	return nil
}

func (f *fakeRepo) Save(ctx context.Context, a *Attendance) error {
	for i, rec := range f.records {
		if rec.ID == a.ID {
			f.records[i] = a
			return nil
		}
	}
	f.records = append(f.records, a)
	return nil
}

func (f *fakeRepo) ListForEvent(ctx context.Context, eventID uint, presenceFilter string) ([]Attendance, error) {
	var out []Attendance
	for _, a := range f.records {
		if a.EventID != eventID {
			continue
		}
		if presenceFilter != "" && a.PresenceStatus != presenceFilter {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepo) SummarizeEvent(ctx context.Context, eventID uint) (*EventAttendanceSummary, error) {
	summary := &EventAttendanceSummary{EventID: eventID}
	for _, a := range f.records {
		if a.EventID != eventID {
			continue
		}
		switch a.PresenceStatus {
		case PresencePresent:
			summary.PresentCount++
		case PresenceAbsent:
			summary.AbsentCount++
		case PresenceLate:
			summary.LateCount++
		}
		if a.CompletionStatus == CompletionCompleted || a.CompletionStatus == CompletionCertified {
			summary.CompletedCount++
		}
		if a.CompletionStatus == CompletionCertified {
			summary.CertifiedCount++
		}
	}
	summary.FillRates()
	return summary, nil
}

type fakeRegRepo struct {
	registered map[uint][]directory.UserRef
}

func (f *fakeRegRepo) Transaction(ctx context.Context, fn func(tx registration.Repository) error) error {
	return fn(f)
}
func (f *fakeRegRepo) GetEventForUpdate(ctx context.Context, eventID uint) (*event.Event, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRegRepo) CountRegistered(ctx context.Context, eventID uint) (int64, error) {
	return int64(len(f.registered[eventID])), nil
}
func (f *fakeRegRepo) CountRegisteredForEvents(ctx context.Context, eventIDs []uint) (map[uint]int64, error) {
	counts := map[uint]int64{}
	for _, id := range eventIDs {
		counts[id] = int64(len(f.registered[id]))
	}
	return counts, nil
}
func (f *fakeRegRepo) FindByUserAndEvent(ctx context.Context, ref directory.UserRef, eventID uint) (*registration.Registration, error) {
	return f.FindRegistered(ctx, ref, eventID)
}
func (f *fakeRegRepo) FindRegistered(ctx context.Context, ref directory.UserRef, eventID uint) (*registration.Registration, error) {
	for _, r := range f.registered[eventID] {
		if r == ref {
			reg := &registration.Registration{EventID: eventID, Status: registration.StatusRegistered}
			reg.SetUser(ref)
			return reg, nil
		}
	}
	return nil, nil
}
func (f *fakeRegRepo) ListActiveWithEvents(ctx context.Context, ref directory.UserRef) ([]registration.RegistrationWithEvent, error) {
	return nil, nil
}
func (f *fakeRegRepo) Create(ctx context.Context, reg *registration.Registration) error { return nil }
func (f *fakeRegRepo) Save(ctx context.Context, reg *registration.Registration) error   { return nil }
func (f *fakeRegRepo) ListForUser(ctx context.Context, ref directory.UserRef, filter registration.ListFilter) ([]registration.RegistrationWithEvent, error) {
	return nil, nil
}
func (f *fakeRegRepo) ListForEvent(ctx context.Context, eventID uint, filter registration.ListFilter) ([]registration.Registration, error) {
	var out []registration.Registration
	for _, ref := range f.registered[eventID] {
		reg := registration.Registration{EventID: eventID, Status: registration.StatusRegistered}
		reg.SetUser(ref)
		out = append(out, reg)
	}
	return out, nil
}

type fakeEventRepo struct {
	events map[uint]*event.Event
}

func (f *fakeEventRepo) Create(ctx context.Context, e *event.Event) error { return nil }
func (f *fakeEventRepo) GetByID(ctx context.Context, id uint) (*event.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
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
	return nil, nil
}

type fakeDirRepo struct{}

func (fakeDirRepo) GetUser(ctx context.Context, ref directory.UserRef) (*directory.UserInfo, error) {
	return &directory.UserInfo{ID: ref.ID, Kind: ref.Kind, Name: ref.ID}, nil
}
func (fakeDirRepo) ListUsersByLocality(ctx context.Context, localityID uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (fakeDirRepo) ListUsersByKind(ctx context.Context, kind directory.UserKind, localityID *uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (fakeDirRepo) ListAllUsers(ctx context.Context, localityID *uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (fakeDirRepo) LocalityExists(ctx context.Context, localityID uint) (bool, error) {
	return true, nil
}
func (fakeDirRepo) ListLocalities(ctx context.Context) ([]directory.Locality, error) {
	return nil, nil
}
func (fakeDirRepo) ListLocalitiesByDistrict(ctx context.Context, districtID uint) ([]directory.Locality, error) {
	return nil, nil
}
func (fakeDirRepo) DistrictExists(ctx context.Context, districtID uint) (bool, error) {
	return true, nil
}
func (fakeDirRepo) DistrictAdminExists(ctx context.Context, id string) (bool, error) {
	return false, nil
}
func (fakeDirRepo) LocalityAdminExists(ctx context.Context, id string) (bool, error) {
	return false, nil
}

type fakeAudit struct{}

func (fakeAudit) LogAction(ctx context.Context, userID *string, eventID *uint, action string, details map[string]interface{}, ip string, status string) error {
	return nil
}
func (fakeAudit) GetAuditLogs(ctx context.Context, filter auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return nil, nil
}

type fakeCache struct {
	invalidations int
}

func (f *fakeCache) Invalidate(ctx context.Context) error {
	f.invalidations++
	return nil
}

// ============================
// Fixture helpers

func citizen(id string) directory.UserRef {
	return directory.UserRef{Kind: directory.KindCitizen, ID: id}
}

func setup() (Service, *fakeRepo, *fakeCache) {
	repo := &fakeRepo{}
	cache := &fakeCache{}
	regRepo := &fakeRegRepo{registered: map[uint][]directory.UserRef{
		1: {citizen("a"), citizen("b")},
	}}
	eventRepo := &fakeEventRepo{events: map[uint]*event.Event{
		1: {ID: 1, Title: "Training", Status: event.StatusActive, StartDateTime: time.Now().UTC()},
	}}

	svc := NewService(repo, regRepo, eventRepo, fakeDirRepo{}, fakeAudit{}, cache)
	return svc, repo, cache
}

// ============================
// MarkAttendance

func TestMarkAttendancePresentDefaultsCompleted(t *testing.T) {
	svc, _, cache := setup()

	rec, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)
	assert.Equal(t, PresencePresent, rec.PresenceStatus)
	assert.Equal(t, CompletionCompleted, rec.CompletionStatus)
	assert.Equal(t, 1, cache.invalidations)
}

func TestMarkAttendanceAbsentDefaultsNotCompleted(t *testing.T) {
	svc, _, _ := setup()

	rec, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresenceAbsent, "", "")
	require.NoError(t, err)
	assert.Equal(t, CompletionNotCompleted, rec.CompletionStatus)
}

func TestMarkAttendanceOverrideWins(t *testing.T) {
	svc, _, _ := setup()

	rec, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, CompletionNotCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, CompletionNotCompleted, rec.CompletionStatus)
}

func TestMarkAttendanceRejectsCertifiedOverride(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, CompletionCertified, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestMarkAttendanceIdempotentOverwrite(t *testing.T) {
	svc, repo, _ := setup()

	first, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)
	second, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.records, 1)
	assert.Equal(t, CompletionCompleted, second.CompletionStatus)
}

func TestMarkAttendanceRemarkReplacesPriorState(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)

	rec, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresenceAbsent, "", "")
	require.NoError(t, err)
	assert.Equal(t, PresenceAbsent, rec.PresenceStatus)
	assert.Equal(t, CompletionNotCompleted, rec.CompletionStatus)
}

func TestMarkAttendanceUnknownEvent(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 99, citizen("a"), PresencePresent, "", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestMarkAttendanceInvalidPresence(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), "SLEEPING", "", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestMarkAttendanceRequiresRegistration(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("unregistered"), PresencePresent, "", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

// ============================
// IssueCertificate

func TestIssueCertificate(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)

	rec, err := svc.IssueCertificate(context.Background(), 1, citizen("a"), "")
	require.NoError(t, err)
	assert.Equal(t, CompletionCertified, rec.CompletionStatus)
	require.NotNil(t, rec.CertificateRef)
	assert.NotEmpty(t, *rec.CertificateRef)
}

func TestIssueCertificateRequiresPresentCompleted(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.IssueCertificate(context.Background(), 1, citizen("a"), "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.MarkAttendance(context.Background(), 1, citizen("a"), PresenceAbsent, "", "")
	require.NoError(t, err)
	_, err = svc.IssueCertificate(context.Background(), 1, citizen("a"), "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestReissueOverwritesReference(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)

	first, err := svc.IssueCertificate(context.Background(), 1, citizen("a"), "")
	require.NoError(t, err)
	firstRef := *first.CertificateRef

	second, err := svc.IssueCertificate(context.Background(), 1, citizen("a"), "")
	require.NoError(t, err)
	assert.Equal(t, CompletionCertified, second.CompletionStatus)
	assert.NotEqual(t, firstRef, *second.CertificateRef)
}

// Re-marking PRESENT must not demote a certified record.
func TestCertifiedSurvivesPresentRemark(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)
	_, err = svc.IssueCertificate(context.Background(), 1, citizen("a"), "")
	require.NoError(t, err)

	rec, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)
	assert.Equal(t, CompletionCertified, rec.CompletionStatus)
	assert.NotNil(t, rec.CertificateRef)
}

func TestCertifiedResetWhenMarkedAbsent(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)
	_, err = svc.IssueCertificate(context.Background(), 1, citizen("a"), "")
	require.NoError(t, err)

	rec, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresenceAbsent, "", "")
	require.NoError(t, err)
	assert.Equal(t, CompletionNotCompleted, rec.CompletionStatus)
	assert.Nil(t, rec.CertificateRef)
}

// ============================
// Projections

func TestGetEventAttendanceSummary(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)
	_, err = svc.MarkAttendance(context.Background(), 1, citizen("b"), PresenceAbsent, "", "")
	require.NoError(t, err)

	result, err := svc.GetEventAttendance(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Summary.PresentCount)
	assert.Equal(t, int64(1), result.Summary.AbsentCount)
	assert.Equal(t, int64(1), result.Summary.CompletedCount)
	assert.Len(t, result.Records, 2)
}

func TestSummaryRates(t *testing.T) {
	summary := EventAttendanceSummary{
		RegisteredCount: 4,
		PresentCount:    2,
		LateCount:       1,
		AbsentCount:     1,
		CompletedCount:  2,
	}
	summary.FillRates()
	assert.Equal(t, 75.0, summary.AttendanceRate, "PRESENT and LATE both count as attended")
	assert.Equal(t, 50.0, summary.CompletionRate)

	empty := EventAttendanceSummary{PresentCount: 3}
	empty.FillRates()
	assert.Equal(t, 0.0, empty.AttendanceRate, "zero registrations must not produce NaN")
	assert.Equal(t, 0.0, empty.CompletionRate)
}

func TestMissedUsers(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.MarkAttendance(context.Background(), 1, citizen("a"), PresencePresent, "", "")
	require.NoError(t, err)
	_, err = svc.MarkAttendance(context.Background(), 1, citizen("b"), PresenceAbsent, "", "")
	require.NoError(t, err)

	missed, err := svc.MissedUsers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, missed, 1)
	assert.Equal(t, "b", missed[0].User.ID)
	assert.Equal(t, PresenceAbsent, missed[0].PresenceStatus)
}
