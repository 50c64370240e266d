package reminder

import (
	"context"
	"time"

	"github.com/swachhsetu/training-backend/internal/auditlog"
	"github.com/swachhsetu/training-backend/internal/compliance"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/utils"
)

type Service interface {
	SelectTargets(ctx context.Context, filter SelectFilter) ([]Target, error)
	SendReminders(ctx context.Context, filter SelectFilter, actorID *string, ip string) (int, error)
}

type service struct {
	dirRepo       directory.Repository
	complianceSvc compliance.Service
	auditSvc      auditlog.Service
}

func NewService(dirRepo directory.Repository, complianceSvc compliance.Service, auditSvc auditlog.Service) Service {
	return &service{
		dirRepo:       dirRepo,
		complianceSvc: complianceSvc,
		auditSvc:      auditSvc,
	}
}

// ===========================
// 🎯 Select users with zero qualifying completions this year
func (s *service) SelectTargets(ctx context.Context, filter SelectFilter) ([]Target, error) {
	var users []directory.UserInfo
	var err error
	if filter.UserKind != nil {
		users, err = s.dirRepo.ListUsersByKind(ctx, *filter.UserKind, filter.LocalityID)
	} else {
		users, err = s.dirRepo.ListAllUsers(ctx, filter.LocalityID)
	}
	if err != nil {
		return nil, err
	}

	year := time.Now().UTC().Year()

	byKind := map[directory.UserKind][]string{}
	for _, u := range users {
		byKind[u.Kind] = append(byKind[u.Kind], u.ID)
	}

	counts := map[directory.UserKind]map[string]int{}
	for kind, ids := range byKind {
		kindCounts, err := s.complianceSvc.ThisYearCounts(ctx, kind, ids, year)
		if err != nil {
			return nil, err
		}
		counts[kind] = kindCounts
	}

	targets := []Target{}
	for _, u := range users {
		if counts[u.Kind][u.ID] > 0 {
			continue
		}
		targets = append(targets, Target{
			UserID:      u.ID,
			UserKind:    u.Kind,
			Name:        u.Name,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
			LocalityID:  u.LocalityID,
			Year:        year,
		})
	}
	return targets, nil
}

// ===========================
// 📨 Publish one message per target to the notifier topic
func (s *service) SendReminders(ctx context.Context, filter SelectFilter, actorID *string, ip string) (int, error) {
	targets, err := s.SelectTargets(ctx, filter)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for _, target := range targets {
		msg := Message{
			Target:     target,
			Reason:     "no qualifying training completion this year",
			SelectedAt: now,
		}
		if err := utils.PublishReminderBatch(ctx, string(target.UserKind)+":"+target.UserID, msg); err != nil {
			s.auditSvc.LogAction(ctx, actorID, nil, "REMINDERS_PUBLISH_FAILED", map[string]interface{}{
				"error":     err.Error(),
				"published": len(targets),
			}, ip, "failure")
			return 0, err
		}
	}

	s.auditSvc.LogAction(ctx, actorID, nil, "REMINDERS_PUBLISHED", map[string]interface{}{
		"count": len(targets),
	}, ip, "success")

	return len(targets), nil
}
