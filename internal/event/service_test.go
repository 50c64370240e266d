package event

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
)

// ============================
// In-memory fakes

type fakeRepo struct {
	events        map[uint]*Event
	nextID        uint
	registrations map[uint]int64
	attendance    map[uint]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:        map[uint]*Event{},
		nextID:        1,
		registrations: map[uint]int64{},
		attendance:    map[uint]int64{},
	}
}

func (f *fakeRepo) Create(ctx context.Context, e *Event) error {
	e.ID = f.nextID
	f.nextID++
	copied := *e
	f.events[e.ID] = &copied
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uint) (*Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeRepo) Update(ctx context.Context, e *Event) error {
	copied := *e
	f.events[e.ID] = &copied
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uint) error {
	delete(f.events, id)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) (*PaginatedEvents, error) {
	out := &PaginatedEvents{Events: []Event{}, Page: 1, Limit: 10}
	for _, e := range f.events {
		out.Events = append(out.Events, *e)
	}
	out.Total = int64(len(out.Events))
	return out, nil
}

func (f *fakeRepo) CountRegistered(ctx context.Context, eventID uint) (int64, error) {
	return f.registrations[eventID], nil
}

func (f *fakeRepo) CountRegistrations(ctx context.Context, eventID uint) (int64, error) {
	return f.registrations[eventID], nil
}

func (f *fakeRepo) CountAttendance(ctx context.Context, eventID uint) (int64, error) {
	return f.attendance[eventID], nil
}

func (f *fakeRepo) ListUpcomingActive(ctx context.Context, from, to time.Time) ([]Event, error) {
	return nil, nil
}

type fakeDirRepo struct {
	districtAdmins map[string]bool
	localityAdmins map[string]bool
}

func (f *fakeDirRepo) GetUser(ctx context.Context, ref directory.UserRef) (*directory.UserInfo, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDirRepo) ListUsersByLocality(ctx context.Context, localityID uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (f *fakeDirRepo) ListUsersByKind(ctx context.Context, kind directory.UserKind, localityID *uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (f *fakeDirRepo) ListAllUsers(ctx context.Context, localityID *uint) ([]directory.UserInfo, error) {
	return nil, nil
}
func (f *fakeDirRepo) LocalityExists(ctx context.Context, localityID uint) (bool, error) {
	return localityID == 1, nil
}
func (f *fakeDirRepo) ListLocalities(ctx context.Context) ([]directory.Locality, error) {
	return nil, nil
}
func (f *fakeDirRepo) ListLocalitiesByDistrict(ctx context.Context, districtID uint) ([]directory.Locality, error) {
	return nil, nil
}
func (f *fakeDirRepo) DistrictExists(ctx context.Context, districtID uint) (bool, error) {
	return true, nil
}
func (f *fakeDirRepo) DistrictAdminExists(ctx context.Context, id string) (bool, error) {
	return f.districtAdmins[id], nil
}
func (f *fakeDirRepo) LocalityAdminExists(ctx context.Context, id string) (bool, error) {
	return f.localityAdmins[id], nil
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) LogAction(ctx context.Context, userID *string, eventID *uint, action string, details map[string]interface{}, ip string, status string) error {
	f.actions = append(f.actions, action)
	return nil
}
func (f *fakeAudit) GetAuditLogs(ctx context.Context, filter auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

// ============================
// Fixture helpers

func setup() (Service, *fakeRepo, *fakeAudit) {
	repo := newFakeRepo()
	audit := &fakeAudit{}
	dir := &fakeDirRepo{
		districtAdmins: map[string]bool{"da-1": true},
		localityAdmins: map[string]bool{"la-1": true},
	}
	return NewService(repo, dir, audit), repo, audit
}

func validRequest() CreateEventRequest {
	start := time.Now().UTC().Add(72 * time.Hour)
	end := start.Add(2 * time.Hour)
	capacity := 30
	return CreateEventRequest{
		Title:          "Waste Segregation Basics",
		Description:    "Door-to-door segregation practices for household waste",
		TrainingType:   "SANITATION",
		Venue:          "Community Hall",
		StartDateTime:  start.Format(time.RFC3339),
		EndDateTime:    end.Format(time.RFC3339),
		MaxCapacity:    &capacity,
		TargetAudience: []string{directory.RoleCitizen, directory.RoleWorker},
		LocalityID:     1,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// ============================
// Create

func TestCreateEventDefaultsToActive(t *testing.T) {
	svc, repo, audit := setup()

	e, err := svc.CreateEvent(context.Background(), validRequest(), strPtr("da-1"), "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, StatusActive, e.Status)
	require.NotNil(t, e.CreatedByDistrictAdminID)
	assert.Equal(t, "da-1", *e.CreatedByDistrictAdminID)
	assert.Nil(t, e.CreatedByLocalityAdminID)
	assert.NotNil(t, repo.events[e.ID])
	assert.Contains(t, audit.actions, "EVENT_CREATED")
}

func TestCreateEventLocalityAdminCreator(t *testing.T) {
	svc, _, _ := setup()

	e, err := svc.CreateEvent(context.Background(), validRequest(), strPtr("la-1"), "10.0.0.1")
	require.NoError(t, err)

	assert.Nil(t, e.CreatedByDistrictAdminID)
	require.NotNil(t, e.CreatedByLocalityAdminID)
	assert.Equal(t, "la-1", *e.CreatedByLocalityAdminID)
}

func TestCreateEventValidation(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	req := validRequest()
	req.EndDateTime = req.StartDateTime // end must be strictly after start
	_, err := svc.CreateEvent(ctx, req, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	req = validRequest()
	req.StartDateTime = "next tuesday"
	_, err = svc.CreateEvent(ctx, req, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	req = validRequest()
	req.Description = ""
	_, err = svc.CreateEvent(ctx, req, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	req = validRequest()
	req.TargetAudience = nil
	_, err = svc.CreateEvent(ctx, req, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	req = validRequest()
	req.TargetAudience = []string{"VISITOR"}
	_, err = svc.CreateEvent(ctx, req, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	req = validRequest()
	req.MaxCapacity = intPtr(0)
	_, err = svc.CreateEvent(ctx, req, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	req = validRequest()
	req.LocalityID = 99
	_, err = svc.CreateEvent(ctx, req, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestCreateEventWithoutEndIsOpenEnded(t *testing.T) {
	svc, _, _ := setup()

	req := validRequest()
	req.EndDateTime = ""
	e, err := svc.CreateEvent(context.Background(), req, nil, "")
	require.NoError(t, err)
	assert.Nil(t, e.EndDateTime)
}

// ============================
// Update

func TestUpdateEventPartialMerge(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, validRequest(), nil, "")
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(ctx, UpdateEventRequest{
		ID:    created.ID,
		Title: strPtr("Waste Segregation Advanced"),
	}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "Waste Segregation Advanced", updated.Title)
	assert.Equal(t, created.TrainingType, updated.TrainingType)
	assert.Equal(t, created.StartDateTime, updated.StartDateTime)
}

func TestUpdateEventRejectsEndBeforeProspectiveStart(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, validRequest(), nil, "")
	require.NoError(t, err)

	// Moving the start past the existing end must be rejected as a pair.
	newStart := created.EndDateTime.Add(time.Hour).Format(time.RFC3339)
	_, err = svc.UpdateEvent(ctx, UpdateEventRequest{
		ID:            created.ID,
		StartDateTime: &newStart,
	}, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUpdateEventClearEnd(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, validRequest(), nil, "")
	require.NoError(t, err)
	require.NotNil(t, created.EndDateTime)

	updated, err := svc.UpdateEvent(ctx, UpdateEventRequest{
		ID:          created.ID,
		EndDateTime: strPtr(""),
	}, nil, "")
	require.NoError(t, err)
	assert.Nil(t, updated.EndDateTime)
}

func TestUpdateEventRejectsEmptyDescription(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, validRequest(), nil, "")
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, UpdateEventRequest{
		ID:          created.ID,
		Description: strPtr(""),
	}, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUpdateEventNotFound(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.UpdateEvent(context.Background(), UpdateEventRequest{ID: 42, Title: strPtr("x")}, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

// ============================
// Delete

func TestDeleteEventRefusedWithRegistrations(t *testing.T) {
	svc, repo, audit := setup()
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, validRequest(), nil, "")
	require.NoError(t, err)
	repo.registrations[created.ID] = 3

	err = svc.DeleteEvent(ctx, created.ID, nil, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.NotNil(t, repo.events[created.ID], "event must survive a refused delete")
	assert.Contains(t, audit.actions, "EVENT_DELETE_FAILED")
}

func TestDeleteEventClean(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, validRequest(), nil, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, created.ID, nil, ""))
	assert.Nil(t, repo.events[created.ID])
}

// ============================
// Audience helpers

func TestAudienceAllows(t *testing.T) {
	svc, _, _ := setup()

	req := validRequest()
	req.TargetAudience = []string{directory.RoleWorker}
	e, err := svc.CreateEvent(context.Background(), req, nil, "")
	require.NoError(t, err)

	assert.True(t, AudienceAllows(e, directory.RoleWorker))
	assert.False(t, AudienceAllows(e, directory.RoleCitizen))
	assert.Equal(t, []string{directory.RoleWorker}, AudienceRoles(e))
}
