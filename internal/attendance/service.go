package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/apperrors"
	"github.com/swachhsetu/training-backend/internal/auditlog"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
	"github.com/swachhsetu/training-backend/internal/registration"
)

// ComplianceCache is invalidated on every attendance write so compliance
// reads reflect a recent snapshot.
type ComplianceCache interface {
	Invalidate(ctx context.Context) error
}

type Service interface {
	MarkAttendance(ctx context.Context, eventID uint, ref directory.UserRef, presence string, completionOverride string, ip string) (*Attendance, error)
	IssueCertificate(ctx context.Context, eventID uint, ref directory.UserRef, ip string) (*Attendance, error)
	GetEventAttendance(ctx context.Context, eventID uint, presenceFilter string) (*EventAttendance, error)
	MissedUsers(ctx context.Context, eventID uint) ([]MissedUser, error)
}

type service struct {
	repo      Repository
	regRepo   registration.Repository
	eventRepo event.Repository
	dirRepo   directory.Repository
	auditSvc  auditlog.Service
	cache     ComplianceCache
}

func NewService(repo Repository, regRepo registration.Repository, eventRepo event.Repository, dirRepo directory.Repository, auditSvc auditlog.Service, cache ComplianceCache) Service {
	return &service{
		repo:      repo,
		regRepo:   regRepo,
		eventRepo: eventRepo,
		dirRepo:   dirRepo,
		auditSvc:  auditSvc,
		cache:     cache,
	}
}

// ===========================
// ✅ Mark Attendance — idempotent-by-overwrite on the (event, user) row
func (s *service) MarkAttendance(ctx context.Context, eventID uint, ref directory.UserRef, presence string, completionOverride string, ip string) (*Attendance, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}

	if !ValidPresence(presence) {
		return nil, apperrors.Validation("presence_status must be PRESENT, ABSENT or LATE")
	}
	if completionOverride != "" && !ValidCompletionOverride(completionOverride) {
		return nil, apperrors.Validation("completion_status override must be NOT_COMPLETED or COMPLETED")
	}

	reg, err := s.regRepo.FindRegistered(ctx, ref, eventID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperrors.NotFound("user is not registered for this event")
	}

	existing, err := s.repo.FindByUserAndEvent(ctx, ref, eventID)
	if err != nil {
		return nil, err
	}

	completion := deriveCompletion(presence, completionOverride, existing)

	var record *Attendance
	if existing != nil {
		existing.PresenceStatus = presence
		if existing.CompletionStatus == CompletionCertified && completion != CompletionCertified {
			existing.CertificateRef = nil
		}
		existing.CompletionStatus = completion
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		record = existing
	} else {
		record = &Attendance{
			EventID:          eventID,
			PresenceStatus:   presence,
			CompletionStatus: completion,
		}
		record.SetUser(ref)
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			fmt.Println("compliance cache invalidation failed:", err)
		}
	}

	s.auditSvc.LogAction(ctx, &ref.ID, &eventID, "ATTENDANCE_MARKED", map[string]interface{}{
		"user_kind":         ref.Kind,
		"presence_status":   presence,
		"completion_status": completion,
	}, ip, "success")

	return record, nil
}

// deriveCompletion applies the completion rule: an explicit override wins,
// otherwise PRESENT implies COMPLETED. A certified record stays CERTIFIED as
// long as presence remains PRESENT and no override demotes it.
func deriveCompletion(presence, override string, existing *Attendance) string {
	if override != "" {
		return override
	}
	if presence == PresencePresent {
		if existing != nil && existing.CompletionStatus == CompletionCertified {
			return CompletionCertified
		}
		return CompletionCompleted
	}
	return CompletionNotCompleted
}

// ===========================
// 🎓 Issue Certificate — only from a PRESENT + COMPLETED base; re-issuance
// after CERTIFIED overwrites the reference
func (s *service) IssueCertificate(ctx context.Context, eventID uint, ref directory.UserRef, ip string) (*Attendance, error) {
	record, err := s.repo.FindByUserAndEvent(ctx, ref, eventID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.PresenceStatus != PresencePresent ||
		(record.CompletionStatus != CompletionCompleted && record.CompletionStatus != CompletionCertified) {
		return nil, apperrors.NotFound("no completion record eligible for certification")
	}

	certRef := fmt.Sprintf("CERT-%d-%s-%d-%s", eventID, ref.ID, time.Now().UTC().Unix(), uuid.NewString()[:8])
	record.CompletionStatus = CompletionCertified
	record.CertificateRef = &certRef

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			fmt.Println("compliance cache invalidation failed:", err)
		}
	}

	s.auditSvc.LogAction(ctx, &ref.ID, &eventID, "CERTIFICATE_ISSUED", map[string]interface{}{
		"certificate_ref": certRef,
	}, ip, "success")

	return record, nil
}

// ===========================
// 📊 Event attendance with live summary
func (s *service) GetEventAttendance(ctx context.Context, eventID uint, presenceFilter string) (*EventAttendance, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	if presenceFilter != "" && !ValidPresence(presenceFilter) {
		return nil, apperrors.Validation("invalid presence filter: " + presenceFilter)
	}

	summary, err := s.repo.SummarizeEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListForEvent(ctx, eventID, presenceFilter)
	if err != nil {
		return nil, err
	}

	return &EventAttendance{Summary: *summary, Records: records}, nil
}

// ===========================
// 🚫 Registered users who missed the event
func (s *service) MissedUsers(ctx context.Context, eventID uint) ([]MissedUser, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}

	regs, err := s.regRepo.ListForEvent(ctx, eventID, registration.ListFilter{Status: registration.StatusRegistered})
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListForEvent(ctx, eventID, "")
	if err != nil {
		return nil, err
	}

	marked := make(map[directory.UserRef]string, len(records))
	for _, rec := range records {
		marked[rec.UserRef()] = rec.PresenceStatus
	}

	var missed []MissedUser
	for _, reg := range regs {
		ref := reg.UserRef()
		presence, ok := marked[ref]
		if ok && presence != PresenceAbsent {
			continue
		}
		status := "NOT_MARKED"
		if ok {
			status = presence
		}

		user, err := s.dirRepo.GetUser(ctx, ref)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		missed = append(missed, MissedUser{User: *user, PresenceStatus: status})
	}
	return missed, nil
}
