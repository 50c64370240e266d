package registration

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/apperrors"
	"github.com/swachhsetu/training-backend/internal/auditlog"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
)

// Serialization failures on the register transaction are the only condition
// retried internally; every business rejection is terminal.
const maxRegisterAttempts = 3

type Service interface {
	Register(ctx context.Context, eventID uint, ref directory.UserRef, ip string) (*RegistrationView, error)
	Cancel(ctx context.Context, eventID uint, ref directory.UserRef, ip string) (*Registration, error)
	ListForUser(ctx context.Context, ref directory.UserRef, filter ListFilter) ([]RegistrationView, error)
	ListForEvent(ctx context.Context, eventID uint, filter ListFilter) ([]Registration, *EventSummary, error)
}

type service struct {
	repo      Repository
	eventRepo event.Repository
	dirRepo   directory.Repository
	auditSvc  auditlog.Service
}

func NewService(repo Repository, eventRepo event.Repository, dirRepo directory.Repository, auditSvc auditlog.Service) Service {
	return &service{
		repo:      repo,
		eventRepo: eventRepo,
		dirRepo:   dirRepo,
		auditSvc:  auditSvc,
	}
}

// ===========================
// 🎯 Register — capacity, eligibility, duplicate and schedule checks run as
// one atomic unit against the locked event row.
func (s *service) Register(ctx context.Context, eventID uint, ref directory.UserRef, ip string) (*RegistrationView, error) {
	if !directory.ValidUserKind(string(ref.Kind)) || ref.ID == "" {
		return nil, apperrors.Validation("user_kind and user_id are required")
	}

	user, err := s.dirRepo.GetUser(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = nil
		} else {
			return nil, err
		}
	}

	var created *Registration
	var eventSummary EventSummary

	for attempt := 1; attempt <= maxRegisterAttempts; attempt++ {
		err = s.repo.Transaction(ctx, func(tx Repository) error {
			reg, summary, txErr := s.registerTx(ctx, tx, eventID, ref, user)
			if txErr != nil {
				return txErr
			}
			created = reg
			eventSummary = summary
			return nil
		})
		if err == nil || !isSerializationFailure(err) {
			break
		}
	}

	if err != nil {
		if isSerializationFailure(err) {
			err = apperrors.Contention("registration contention, please retry")
		}
		s.auditSvc.LogAction(ctx, &ref.ID, &eventID, "REGISTRATION_FAILED", map[string]interface{}{
			"user_kind": ref.Kind,
			"error":     err.Error(),
		}, ip, "failure")
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &ref.ID, &eventID, "REGISTRATION_CREATED", map[string]interface{}{
		"user_kind":       ref.Kind,
		"registration_id": created.ID,
	}, ip, "success")

	return &RegistrationView{
		Registration: *created,
		Event:        eventSummary,
		User:         user,
	}, nil
}

// registerTx performs the ordered checks. The ordering is observable in
// error responses and must not change: event state, capacity, user
// existence, eligibility, duplicate, schedule conflict.
func (s *service) registerTx(ctx context.Context, tx Repository, eventID uint, ref directory.UserRef, user *directory.UserInfo) (*Registration, EventSummary, error) {
	ev, err := tx.GetEventForUpdate(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, EventSummary{}, apperrors.NotFound("event not found")
		}
		return nil, EventSummary{}, err
	}

	if ev.Status != event.StatusActive {
		return nil, EventSummary{}, apperrors.State("event is not open for registration")
	}

	registered, err := tx.CountRegistered(ctx, eventID)
	if err != nil {
		return nil, EventSummary{}, err
	}
	if ev.MaxCapacity != nil && registered >= int64(*ev.MaxCapacity) {
		return nil, EventSummary{}, apperrors.CapacityFull("event is at full capacity").WithDetails(map[string]interface{}{
			"max_capacity": *ev.MaxCapacity,
			"registered":   registered,
		})
	}

	if user == nil {
		return nil, EventSummary{}, apperrors.NotFound("user not found")
	}

	if !event.AudienceAllows(ev, ref.Role()) {
		return nil, EventSummary{}, apperrors.Eligibility("user role is not in the event's target audience")
	}

	existing, err := tx.FindRegistered(ctx, ref, eventID)
	if err != nil {
		return nil, EventSummary{}, err
	}
	if existing != nil {
		return nil, EventSummary{}, apperrors.Conflict("already registered for this event")
	}

	conflicts, err := s.scanConflicts(ctx, tx, ev, ref)
	if err != nil {
		return nil, EventSummary{}, err
	}
	if len(conflicts) > 0 {
		return nil, EventSummary{}, apperrors.TimeConflict("overlapping registration exists").WithDetails(map[string]interface{}{
			"conflicting_events": conflicts,
		})
	}

	reg := &Registration{
		EventID:      eventID,
		Status:       StatusRegistered,
		RegisteredAt: time.Now().UTC(),
	}
	reg.SetUser(ref)
	if err := tx.Create(ctx, reg); err != nil {
		return nil, EventSummary{}, err
	}

	summary := EventSummary{
		ID:              ev.ID,
		Title:           ev.Title,
		StartDateTime:   ev.StartDateTime,
		EndDateTime:     ev.EndDateTime,
		Venue:           ev.Venue,
		MaxCapacity:     ev.MaxCapacity,
		RegisteredCount: int(registered) + 1,
	}
	return reg, summary, nil
}

// scanConflicts tests the candidate window against the user's other ACTIVE
// commitments. All clashes are reported, not just the first.
func (s *service) scanConflicts(ctx context.Context, tx Repository, candidate *event.Event, ref directory.UserRef) ([]ConflictingEvent, error) {
	active, err := tx.ListActiveWithEvents(ctx, ref)
	if err != nil {
		return nil, err
	}

	var conflicts []ConflictingEvent
	for _, rw := range active {
		if rw.Event.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate.StartDateTime, candidate.EndDateTime, rw.Event.StartDateTime, rw.Event.EndDateTime) {
			conflicts = append(conflicts, ConflictingEvent{
				EventID:       rw.Event.ID,
				Title:         rw.Event.Title,
				StartDateTime: rw.Event.StartDateTime,
				EndDateTime:   rw.Event.EndDateTime,
			})
		}
	}
	return conflicts, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// ===========================
// ❌ Cancel — refused once the event has started; cancelling an already
// cancelled registration is a no-op success so retries stay safe.
func (s *service) Cancel(ctx context.Context, eventID uint, ref directory.UserRef, ip string) (*Registration, error) {
	reg, err := s.repo.FindByUserAndEvent(ctx, ref, eventID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperrors.NotFound("registration not found")
	}
	if reg.Status == StatusCancelled {
		return reg, nil
	}

	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	if ev.HasStarted(time.Now().UTC()) {
		s.auditSvc.LogAction(ctx, &ref.ID, &eventID, "REGISTRATION_CANCEL_FAILED", map[string]interface{}{
			"reason": "event already started",
		}, ip, "failure")
		return nil, apperrors.State("cannot cancel after the event has started")
	}

	reg.Status = StatusCancelled
	if err := s.repo.Save(ctx, reg); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &ref.ID, &eventID, "REGISTRATION_CANCELLED", map[string]interface{}{
		"registration_id": reg.ID,
	}, ip, "success")

	return reg, nil
}

// ===========================
// 📄 Read projections
func (s *service) ListForUser(ctx context.Context, ref directory.UserRef, filter ListFilter) ([]RegistrationView, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, apperrors.Validation("invalid status filter: " + filter.Status)
	}

	joined, err := s.repo.ListForUser(ctx, ref, filter)
	if err != nil {
		return nil, err
	}

	eventIDs := make([]uint, 0, len(joined))
	for _, rw := range joined {
		eventIDs = append(eventIDs, rw.Event.ID)
	}
	counts, err := s.repo.CountRegisteredForEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RegistrationView, 0, len(joined))
	for _, rw := range joined {
		views = append(views, RegistrationView{
			Registration: rw.Registration,
			Event: EventSummary{
				ID:              rw.Event.ID,
				Title:           rw.Event.Title,
				StartDateTime:   rw.Event.StartDateTime,
				EndDateTime:     rw.Event.EndDateTime,
				Venue:           rw.Event.Venue,
				MaxCapacity:     rw.Event.MaxCapacity,
				RegisteredCount: int(counts[rw.Event.ID]),
			},
		})
	}
	return views, nil
}

func (s *service) ListForEvent(ctx context.Context, eventID uint, filter ListFilter) ([]Registration, *EventSummary, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, nil, apperrors.Validation("invalid status filter: " + filter.Status)
	}

	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("event not found")
		}
		return nil, nil, err
	}

	regs, err := s.repo.ListForEvent(ctx, eventID, filter)
	if err != nil {
		return nil, nil, err
	}

	summary := &EventSummary{
		ID:              ev.ID,
		Title:           ev.Title,
		StartDateTime:   ev.StartDateTime,
		EndDateTime:     ev.EndDateTime,
		Venue:           ev.Venue,
		MaxCapacity:     ev.MaxCapacity,
		RegisteredCount: ev.RegisteredCount,
	}
	return regs, summary, nil
}
