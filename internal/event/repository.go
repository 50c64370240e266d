package event

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uint) (*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ListFilter) (*PaginatedEvents, error)
	CountRegistered(ctx context.Context, eventID uint) (int64, error)
	CountRegistrations(ctx context.Context, eventID uint) (int64, error)
	CountAttendance(ctx context.Context, eventID uint) (int64, error)
	ListUpcomingActive(ctx context.Context, from, to time.Time) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// ===========================
// 🎯 Create Event
func (r *repository) Create(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ===========================
// 🔍 Get Event By ID with registered count
func (r *repository) GetByID(ctx context.Context, id uint) (*Event, error) {
	var e Event
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}

	count, err := r.CountRegistered(ctx, id)
	if err != nil {
		return nil, err
	}
	e.RegisteredCount = int(count)
	return &e, nil
}

// ===========================
// 🛠 Update Event
func (r *repository) Update(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// ===========================
// ❌ Delete Event
func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Event{}, id).Error
}

// ===========================
// 📄 List Events With Pagination & Filters
func (r *repository) List(ctx context.Context, filter ListFilter) (*PaginatedEvents, error) {
	query := r.db.WithContext(ctx).Model(&Event{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LocalityID != 0 {
		query = query.Where("locality_id = ?", filter.LocalityID)
	}
	if filter.TrainingType != "" {
		query = query.Where("training_type = ?", filter.TrainingType)
	}
	if filter.Audience != "" {
		query = query.Where("target_audience @> ?", `["`+filter.Audience+`"]`)
	}
	if filter.Search != "" {
		ilike := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", ilike, ilike)
	}
	if filter.FromDate != nil {
		query = query.Where("start_date_time >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("start_date_time <= ?", *filter.ToDate)
	}
	if filter.UpcomingOnly {
		query = query.Where("start_date_time >= ?", time.Now().UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var events []Event
	err := query.
		Order("start_date_time ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	for i := range events {
		count, err := r.CountRegistered(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].RegisteredCount = int(count)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &PaginatedEvents{
		Events:     events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// ===========================
// 🔢 Count REGISTERED rows for an event
func (r *repository) CountRegistered(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("registrations").
		Where("event_id = ? AND status = ?", eventID, "REGISTERED").
		Count(&count).Error
	return count, err
}

// ===========================
// 🔢 Count all registrations for an event (any status)
func (r *repository) CountRegistrations(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("registrations").
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

// ===========================
// 🔢 Count attendance rows for an event
func (r *repository) CountAttendance(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("attendance_records").
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

// ===========================
// 📆 Upcoming active events within a window
func (r *repository) ListUpcomingActive(ctx context.Context, from, to time.Time) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date_time >= ? AND start_date_time <= ?", StatusActive, from, to).
		Order("start_date_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	for i := range events {
		count, err := r.CountRegistered(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].RegisteredCount = int(count)
	}
	return events, nil
}
