package attendance

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/directory"
)

type Repository interface {
	FindByUserAndEvent(ctx context.Context, ref directory.UserRef, eventID uint) (*Attendance, error)
	Create(ctx context.Context, a *Attendance) error
	Save(ctx context.Context, a *Attendance) error
	ListForEvent(ctx context.Context, eventID uint, presenceFilter string) ([]Attendance, error)
	SummarizeEvent(ctx context.Context, eventID uint) (*EventAttendanceSummary, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func userScope(ref directory.UserRef) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ref.Kind == directory.KindWorker {
			return db.Where("worker_id = ?", ref.ID)
		}
		return db.Where("citizen_id = ?", ref.ID)
	}
}

func (r *repository) FindByUserAndEvent(ctx context.Context, ref directory.UserRef, eventID uint) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Scopes(userScope(ref)).
		Where("event_id = ?", eventID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) Create(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) Save(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) ListForEvent(ctx context.Context, eventID uint, presenceFilter string) ([]Attendance, error) {
	query := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if presenceFilter != "" {
		query = query.Where("presence_status = ?", presenceFilter)
	}

	var records []Attendance
	err := query.Order("id ASC").Find(&records).Error
	return records, err
}

// SummarizeEvent counts presence and completion buckets plus the REGISTERED
// denominator in one pass each.
func (r *repository) SummarizeEvent(ctx context.Context, eventID uint) (*EventAttendanceSummary, error) {
	summary := &EventAttendanceSummary{EventID: eventID}

	type bucket struct {
		PresenceStatus string
		Count          int64
	}
	var presence []bucket
	err := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Select("presence_status, COUNT(*) as count").
		Where("event_id = ?", eventID).
		Group("presence_status").
		Scan(&presence).Error
	if err != nil {
		return nil, err
	}
	for _, b := range presence {
		switch b.PresenceStatus {
		case PresencePresent:
			summary.PresentCount = b.Count
		case PresenceAbsent:
			summary.AbsentCount = b.Count
		case PresenceLate:
			summary.LateCount = b.Count
		}
	}

	err = r.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("event_id = ? AND completion_status IN ?", eventID, []string{CompletionCompleted, CompletionCertified}).
		Count(&summary.CompletedCount).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("event_id = ? AND completion_status = ?", eventID, CompletionCertified).
		Count(&summary.CertifiedCount).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Table("registrations").
		Where("event_id = ? AND status = ?", eventID, "REGISTERED").
		Count(&summary.RegisteredCount).Error
	if err != nil {
		return nil, err
	}

	summary.FillRates()
	return summary, nil
}
