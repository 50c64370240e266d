package compliance

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/directory"
)

// Repository runs the batched rollup queries. Everything here is read-only;
// the rollups are grouped by user or month to avoid per-entity query loops.
type Repository interface {
	QualifyingCompletionsForUsers(ctx context.Context, kind directory.UserKind, ids []string) (map[string][]QualifyingCompletion, error)
	MonthlyEventCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error)
	MonthlyRegistrationCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error)
	MonthlyAttendanceCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error)

	// EventAnalyticsRows returns per-event outcome counts for the events
	// matching the locality/date window, rates filled in.
	EventAnalyticsRows(ctx context.Context, localityIDs []uint, from, to *time.Time) ([]EventAnalyticsRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func kindColumn(kind directory.UserKind) string {
	if kind == directory.KindWorker {
		return "worker_id"
	}
	return "citizen_id"
}

// ===========================
// 🎓 Qualifying completions per user, batched over one IN query
func (r *repository) QualifyingCompletionsForUsers(ctx context.Context, kind directory.UserKind, ids []string) (map[string][]QualifyingCompletion, error) {
	byUser := make(map[string][]QualifyingCompletion, len(ids))
	if len(ids) == 0 {
		return byUser, nil
	}

	column := kindColumn(kind)

	type row struct {
		UserID           string
		EventID          uint
		Title            string
		StartDateTime    time.Time
		CompletionStatus string
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("attendance_records").
		Select("attendance_records."+column+" AS user_id, training_events.id AS event_id, training_events.title, training_events.start_date_time, attendance_records.completion_status").
		Joins("JOIN training_events ON training_events.id = attendance_records.event_id").
		Where("attendance_records."+column+" IN ?", ids).
		Where("attendance_records.completion_status IN ?", []string{"COMPLETED", "CERTIFIED"}).
		Order("training_events.start_date_time DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		byUser[rw.UserID] = append(byUser[rw.UserID], QualifyingCompletion{
			EventID:          rw.EventID,
			Title:            rw.Title,
			StartDateTime:    rw.StartDateTime,
			CompletionStatus: rw.CompletionStatus,
		})
	}
	return byUser, nil
}

// ===========================
// 📅 Monthly rollups, grouped by the event's start month
type monthRow struct {
	Month int
	Count int64
}

func (r *repository) MonthlyEventCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error) {
	from, to := yearWindow(filter.Year)

	query := r.db.WithContext(ctx).
		Table("training_events").
		Select("EXTRACT(MONTH FROM start_date_time)::int AS month, COUNT(*) AS count").
		Where("start_date_time >= ? AND start_date_time <= ?", from, to)
	if filter.LocalityID != 0 {
		query = query.Where("locality_id = ?", filter.LocalityID)
	}

	return scanMonths(query)
}

func (r *repository) MonthlyRegistrationCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error) {
	from, to := yearWindow(filter.Year)

	query := r.db.WithContext(ctx).
		Table("registrations").
		Select("EXTRACT(MONTH FROM training_events.start_date_time)::int AS month, COUNT(*) AS count").
		Joins("JOIN training_events ON training_events.id = registrations.event_id").
		Where("training_events.start_date_time >= ? AND training_events.start_date_time <= ?", from, to)
	if filter.LocalityID != 0 {
		query = query.Where("training_events.locality_id = ?", filter.LocalityID)
	}

	return scanMonths(query)
}

func (r *repository) MonthlyAttendanceCounts(ctx context.Context, filter TrendFilter) (map[int]int64, error) {
	from, to := yearWindow(filter.Year)

	query := r.db.WithContext(ctx).
		Table("attendance_records").
		Select("EXTRACT(MONTH FROM training_events.start_date_time)::int AS month, COUNT(*) AS count").
		Joins("JOIN training_events ON training_events.id = attendance_records.event_id").
		Where("training_events.start_date_time >= ? AND training_events.start_date_time <= ?", from, to)
	if filter.LocalityID != 0 {
		query = query.Where("training_events.locality_id = ?", filter.LocalityID)
	}

	return scanMonths(query)
}

func scanMonths(query *gorm.DB) (map[int]int64, error) {
	var rows []monthRow
	if err := query.Group("month").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int64, 12)
	for _, rw := range rows {
		counts[rw.Month] = rw.Count
	}
	return counts, nil
}

// ===========================
// 📈 Per-event analytics rows: three grouped counts over one event set
func (r *repository) EventAnalyticsRows(ctx context.Context, localityIDs []uint, from, to *time.Time) ([]EventAnalyticsRow, error) {
	type eventRow struct {
		ID            uint
		Title         string
		StartDateTime time.Time
		LocalityID    uint
	}
	var events []eventRow

	query := r.db.WithContext(ctx).
		Table("training_events").
		Select("id, title, start_date_time, locality_id")
	if len(localityIDs) > 0 {
		query = query.Where("locality_id IN ?", localityIDs)
	}
	if from != nil {
		query = query.Where("start_date_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("start_date_time <= ?", *to)
	}
	if err := query.Order("start_date_time ASC").Scan(&events).Error; err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return []EventAnalyticsRow{}, nil
	}

	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}

	registered, err := r.countByEvent(ctx, "registrations", ids, "status = 'REGISTERED'")
	if err != nil {
		return nil, err
	}
	attended, err := r.countByEvent(ctx, "attendance_records", ids, "presence_status IN ('PRESENT','LATE')")
	if err != nil {
		return nil, err
	}
	completed, err := r.countByEvent(ctx, "attendance_records", ids, "completion_status IN ('COMPLETED','CERTIFIED')")
	if err != nil {
		return nil, err
	}

	rows := make([]EventAnalyticsRow, 0, len(events))
	for _, e := range events {
		row := EventAnalyticsRow{
			EventID:       e.ID,
			Title:         e.Title,
			StartDateTime: e.StartDateTime,
			LocalityID:    e.LocalityID,
			Registered:    registered[e.ID],
			Attended:      attended[e.ID],
			Completed:     completed[e.ID],
		}
		row.AttendanceRate = Rate(row.Attended, row.Registered)
		row.CompletionRate = Rate(row.Completed, row.Registered)
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *repository) countByEvent(ctx context.Context, table string, ids []uint, condition string) (map[uint]int64, error) {
	type countRow struct {
		EventID uint
		Count   int64
	}
	var rows []countRow
	err := r.db.WithContext(ctx).
		Table(table).
		Select("event_id, COUNT(*) AS count").
		Where("event_id IN ?", ids).
		Where(condition).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, rw := range rows {
		counts[rw.EventID] = rw.Count
	}
	return counts, nil
}

// yearWindow returns the inclusive bounds of a calendar year in UTC.
func yearWindow(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 999999999, time.UTC)
	return from, to
}
