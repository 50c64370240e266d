package registration

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
)

type Repository interface {
	// Transaction runs fn against a tx-scoped repository at SERIALIZABLE
	// isolation. The event-row lock serializes same-event registrations;
	// the isolation level covers the same-user case, where two overlapping
	// registrations touch different event rows and share no lock — one of
	// the two commits fails with SQLSTATE 40001 and is retried upstream.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	GetEventForUpdate(ctx context.Context, eventID uint) (*event.Event, error)
	CountRegistered(ctx context.Context, eventID uint) (int64, error)
	CountRegisteredForEvents(ctx context.Context, eventIDs []uint) (map[uint]int64, error)
	FindByUserAndEvent(ctx context.Context, ref directory.UserRef, eventID uint) (*Registration, error)
	FindRegistered(ctx context.Context, ref directory.UserRef, eventID uint) (*Registration, error)
	ListActiveWithEvents(ctx context.Context, ref directory.UserRef) ([]RegistrationWithEvent, error)
	Create(ctx context.Context, reg *Registration) error
	Save(ctx context.Context, reg *Registration) error

	ListForUser(ctx context.Context, ref directory.UserRef, filter ListFilter) ([]RegistrationWithEvent, error)
	ListForEvent(ctx context.Context, eventID uint, filter ListFilter) ([]Registration, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// userScope filters by the column matching the reference's kind.
func userScope(ref directory.UserRef) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ref.Kind == directory.KindWorker {
			return db.Where("worker_id = ?", ref.ID)
		}
		return db.Where("citizen_id = ?", ref.ID)
	}
}

// ===========================
// 🔒 Lock the event row for the duration of the transaction
func (r *repository) GetEventForUpdate(ctx context.Context, eventID uint) (*event.Event, error) {
	var e event.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, eventID).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ===========================
// 🔢 Count REGISTERED rows for an event
func (r *repository) CountRegistered(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ? AND status = ?", eventID, StatusRegistered).
		Count(&count).Error
	return count, err
}

// ===========================
// 🔢 REGISTERED counts for a set of events in one grouped query
func (r *repository) CountRegisteredForEvents(ctx context.Context, eventIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	type countRow struct {
		EventID uint
		Count   int64
	}
	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(&Registration{}).
		Select("event_id, COUNT(*) AS count").
		Where("event_id IN ? AND status = ?", eventIDs, StatusRegistered).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	return counts, nil
}

// ===========================
// 🔍 Find a user's registration for an event (any status)
func (r *repository) FindByUserAndEvent(ctx context.Context, ref directory.UserRef, eventID uint) (*Registration, error) {
	var reg Registration
	err := r.db.WithContext(ctx).
		Scopes(userScope(ref)).
		Where("event_id = ?", eventID).
		Order("id DESC").
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// ===========================
// 🔍 Find a user's REGISTERED registration for an event
func (r *repository) FindRegistered(ctx context.Context, ref directory.UserRef, eventID uint) (*Registration, error) {
	var reg Registration
	err := r.db.WithContext(ctx).
		Scopes(userScope(ref)).
		Where("event_id = ? AND status = ?", eventID, StatusRegistered).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// ===========================
// 📆 A user's REGISTERED registrations joined to their ACTIVE events
func (r *repository) ListActiveWithEvents(ctx context.Context, ref directory.UserRef) ([]RegistrationWithEvent, error) {
	var regs []Registration
	err := r.db.WithContext(ctx).
		Scopes(userScope(ref)).
		Where("status = ?", StatusRegistered).
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return r.joinEvents(ctx, regs, event.StatusActive)
}

// ===========================
// 🎯 Create / Save
func (r *repository) Create(ctx context.Context, reg *Registration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *repository) Save(ctx context.Context, reg *Registration) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

// ===========================
// 📄 List a user's registrations with event details
func (r *repository) ListForUser(ctx context.Context, ref directory.UserRef, filter ListFilter) ([]RegistrationWithEvent, error) {
	query := r.db.WithContext(ctx).Scopes(userScope(ref))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var regs []Registration
	if err := query.Order("registered_at DESC").Find(&regs).Error; err != nil {
		return nil, err
	}

	joined, err := r.joinEvents(ctx, regs, "")
	if err != nil {
		return nil, err
	}

	if filter.UpcomingOnly {
		now := time.Now().UTC()
		upcoming := joined[:0]
		for _, rw := range joined {
			if !rw.Event.StartDateTime.Before(now) {
				upcoming = append(upcoming, rw)
			}
		}
		joined = upcoming
	}
	return joined, nil
}

// ===========================
// 📄 List registrations for an event
func (r *repository) ListForEvent(ctx context.Context, eventID uint, filter ListFilter) ([]Registration, error) {
	query := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var regs []Registration
	err := query.Order("registered_at ASC").Find(&regs).Error
	return regs, err
}

// joinEvents loads the referenced events in one IN query. statusFilter, when
// set, drops rows whose event is in a different lifecycle state.
func (r *repository) joinEvents(ctx context.Context, regs []Registration, statusFilter string) ([]RegistrationWithEvent, error) {
	if len(regs) == 0 {
		return []RegistrationWithEvent{}, nil
	}

	ids := make([]uint, 0, len(regs))
	for _, reg := range regs {
		ids = append(ids, reg.EventID)
	}

	var events []event.Event
	query := r.db.WithContext(ctx).Where("id IN ?", ids)
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]event.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	joined := make([]RegistrationWithEvent, 0, len(regs))
	for _, reg := range regs {
		e, ok := byID[reg.EventID]
		if !ok {
			continue
		}
		joined = append(joined, RegistrationWithEvent{Registration: reg, Event: e})
	}
	return joined, nil
}
