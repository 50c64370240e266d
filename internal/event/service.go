package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/apperrors"
	"github.com/swachhsetu/training-backend/internal/auditlog"
	"github.com/swachhsetu/training-backend/internal/directory"
)

type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest, actorID *string, ip string) (*Event, error)
	UpdateEvent(ctx context.Context, req UpdateEventRequest, actorID *string, ip string) (*Event, error)
	DeleteEvent(ctx context.Context, id uint, actorID *string, ip string) error
	GetEvent(ctx context.Context, id uint) (*Event, error)
	ListEvents(ctx context.Context, filter ListFilter) (*PaginatedEvents, error)
}

type service struct {
	repo     Repository
	dirRepo  directory.Repository
	auditSvc auditlog.Service
}

func NewService(repo Repository, dirRepo directory.Repository, auditSvc auditlog.Service) Service {
	return &service{
		repo:     repo,
		dirRepo:  dirRepo,
		auditSvc: auditSvc,
	}
}

// ===========================
// 🎯 Create Event
func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest, actorID *string, ip string) (*Event, error) {
	start, end, err := parseWindow(req.StartDateTime, req.EndDateTime)
	if err != nil {
		return nil, err
	}

	if req.Title == "" || req.Description == "" || req.TrainingType == "" || req.Venue == "" {
		return nil, apperrors.Validation("title, description, training_type and venue are required")
	}
	if len(req.TargetAudience) == 0 {
		return nil, apperrors.Validation("target_audience must not be empty")
	}
	for _, role := range req.TargetAudience {
		if !directory.ValidAudienceRole(role) {
			return nil, apperrors.Validation("invalid audience role: " + role)
		}
	}
	if req.MaxCapacity != nil && *req.MaxCapacity < 1 {
		return nil, apperrors.Validation("max_capacity must be at least 1")
	}

	status := StatusActive
	if req.Status != "" {
		if !ValidStatus(req.Status) {
			return nil, apperrors.Validation("invalid status: " + req.Status)
		}
		status = req.Status
	}

	exists, err := s.dirRepo.LocalityExists(ctx, req.LocalityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("locality not found")
	}

	audienceJSON, err := json.Marshal(req.TargetAudience)
	if err != nil {
		return nil, apperrors.Validation("invalid target_audience")
	}

	e := &Event{
		Title:          req.Title,
		Description:    req.Description,
		TrainingType:   req.TrainingType,
		Venue:          req.Venue,
		StartDateTime:  start,
		EndDateTime:    end,
		MaxCapacity:    req.MaxCapacity,
		TargetAudience: datatypes.JSON(audienceJSON),
		Status:         status,
		LocalityID:     req.LocalityID,
	}

	if actorID != nil {
		if err := s.attachCreator(ctx, e, *actorID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.auditSvc.LogAction(ctx, actorID, nil, "EVENT_CREATE_FAILED", map[string]interface{}{
			"title": req.Title,
			"error": err.Error(),
		}, ip, "failure")
		return nil, err
	}

	s.auditSvc.LogAction(ctx, actorID, &e.ID, "EVENT_CREATED", map[string]interface{}{
		"title":       e.Title,
		"locality_id": e.LocalityID,
		"status":      e.Status,
	}, ip, "success")

	return e, nil
}

// attachCreator records which admin created the event. Either admin table may
// hold the id; district admins take precedence when both match.
func (s *service) attachCreator(ctx context.Context, e *Event, actorID string) error {
	isDistrict, err := s.dirRepo.DistrictAdminExists(ctx, actorID)
	if err != nil {
		return err
	}
	if isDistrict {
		e.CreatedByDistrictAdminID = &actorID
		return nil
	}
	isLocality, err := s.dirRepo.LocalityAdminExists(ctx, actorID)
	if err != nil {
		return err
	}
	if isLocality {
		e.CreatedByLocalityAdminID = &actorID
		return nil
	}
	return apperrors.NotFound("creator not found")
}

// ===========================
// 🛠 Update Event (partial — merged with the existing record)
func (s *service) UpdateEvent(ctx context.Context, req UpdateEventRequest, actorID *string, ip string) (*Event, error) {
	e, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperrors.Validation("title must not be empty")
		}
		e.Title = *req.Title
	}
	if req.Description != nil {
		if *req.Description == "" {
			return nil, apperrors.Validation("description must not be empty")
		}
		e.Description = *req.Description
	}
	if req.TrainingType != nil {
		if *req.TrainingType == "" {
			return nil, apperrors.Validation("training_type must not be empty")
		}
		e.TrainingType = *req.TrainingType
	}
	if req.Venue != nil {
		if *req.Venue == "" {
			return nil, apperrors.Validation("venue must not be empty")
		}
		e.Venue = *req.Venue
	}

	// Re-validate start/end against the prospective combination.
	start := e.StartDateTime
	end := e.EndDateTime
	if req.StartDateTime != nil {
		parsed, err := time.Parse(time.RFC3339, *req.StartDateTime)
		if err != nil {
			return nil, apperrors.Validation("invalid start_date_time, expected RFC3339")
		}
		start = parsed.UTC()
	}
	if req.EndDateTime != nil {
		if *req.EndDateTime == "" {
			end = nil
		} else {
			parsed, err := time.Parse(time.RFC3339, *req.EndDateTime)
			if err != nil {
				return nil, apperrors.Validation("invalid end_date_time, expected RFC3339")
			}
			u := parsed.UTC()
			end = &u
		}
	}
	if end != nil && !end.After(start) {
		return nil, apperrors.Validation("end_date_time must be after start_date_time")
	}
	e.StartDateTime = start
	e.EndDateTime = end

	if req.MaxCapacity != nil {
		if *req.MaxCapacity < 1 {
			return nil, apperrors.Validation("max_capacity must be at least 1")
		}
		e.MaxCapacity = req.MaxCapacity
	}
	if len(req.TargetAudience) > 0 {
		for _, role := range req.TargetAudience {
			if !directory.ValidAudienceRole(role) {
				return nil, apperrors.Validation("invalid audience role: " + role)
			}
		}
		audienceJSON, err := json.Marshal(req.TargetAudience)
		if err != nil {
			return nil, apperrors.Validation("invalid target_audience")
		}
		e.TargetAudience = datatypes.JSON(audienceJSON)
	}
	if req.Status != nil {
		if !ValidStatus(*req.Status) {
			return nil, apperrors.Validation("invalid status: " + *req.Status)
		}
		e.Status = *req.Status
	}

	if err := s.repo.Update(ctx, e); err != nil {
		s.auditSvc.LogAction(ctx, actorID, &e.ID, "EVENT_UPDATE_FAILED", map[string]interface{}{
			"error": err.Error(),
		}, ip, "failure")
		return nil, err
	}

	s.auditSvc.LogAction(ctx, actorID, &e.ID, "EVENT_UPDATED", map[string]interface{}{
		"title":  e.Title,
		"status": e.Status,
	}, ip, "success")

	return e, nil
}

// ===========================
// ❌ Delete Event — refused while registrations or attendance exist
func (s *service) DeleteEvent(ctx context.Context, id uint, actorID *string, ip string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("event not found")
		}
		return err
	}

	regCount, err := s.repo.CountRegistrations(ctx, id)
	if err != nil {
		return err
	}
	attCount, err := s.repo.CountAttendance(ctx, id)
	if err != nil {
		return err
	}
	if regCount > 0 || attCount > 0 {
		s.auditSvc.LogAction(ctx, actorID, &id, "EVENT_DELETE_FAILED", map[string]interface{}{
			"registrations": regCount,
			"attendance":    attCount,
		}, ip, "failure")
		return apperrors.Conflict("event has registrations or attendance records").WithDetails(map[string]interface{}{
			"registrations": regCount,
			"attendance":    attCount,
		})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAction(ctx, actorID, &id, "EVENT_DELETED", nil, ip, "success")
	return nil
}

// ===========================
// 🔍 Get / List
func (s *service) GetEvent(ctx context.Context, id uint) (*Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	return e, nil
}

func (s *service) ListEvents(ctx context.Context, filter ListFilter) (*PaginatedEvents, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, apperrors.Validation("invalid status filter: " + filter.Status)
	}
	if filter.Audience != "" && !directory.ValidAudienceRole(filter.Audience) {
		return nil, apperrors.Validation("invalid audience filter: " + filter.Audience)
	}
	return s.repo.List(ctx, filter)
}

// parseWindow validates the create-time schedule fields.
func parseWindow(startStr, endStr string) (time.Time, *time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, nil, apperrors.Validation("invalid start_date_time, expected RFC3339")
	}
	start = start.UTC()

	if endStr == "" {
		return start, nil, nil
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, nil, apperrors.Validation("invalid end_date_time, expected RFC3339")
	}
	endUTC := end.UTC()
	if !endUTC.After(start) {
		return time.Time{}, nil, apperrors.Validation("end_date_time must be after start_date_time")
	}
	return start, &endUTC, nil
}

// AudienceRoles decodes the stored audience set.
func AudienceRoles(e *Event) []string {
	var roles []string
	if err := json.Unmarshal(e.TargetAudience, &roles); err != nil {
		return nil
	}
	return roles
}

// AudienceAllows reports whether a role is eligible for the event.
func AudienceAllows(e *Event, role string) bool {
	for _, r := range AudienceRoles(e) {
		if r == role {
			return true
		}
	}
	return false
}
