package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// referenceAttempts bounds retries when a generated reference number
// collides with an existing one.
const referenceAttempts = 5

// CreateRequestInput holds the fields accepted when creating a request.
type CreateRequestInput struct {
	Type                   string
	SubType                string
	CategoryID             *uuid.UUID
	Title                  string
	Description            string
	RequesterName          string
	RequesterPhone         string
	RequesterAddress       string
	Latitude               *float64
	Longitude              *float64
	Constituency           string
	District               string
	Priority               string
	EstimatedCost          float64
	ExpectedResolutionDate *time.Time
	CreatedBy              *uuid.UUID
}

// UpdateRequestInput holds the patchable fields of a request. Nil
// pointers leave the field untouched.
type UpdateRequestInput struct {
	Type                   *string
	SubType                *string
	CategoryID             *uuid.UUID
	Title                  *string
	Description            *string
	RequesterName          *string
	RequesterPhone         *string
	RequesterAddress       *string
	Constituency           *string
	District               *string
	Priority               *string
	EstimatedCost          *float64
	ExpectedResolutionDate *time.Time
}

// RequestPage is one page of a filtered request listing.
type RequestPage struct {
	Requests   []*models.Request `json:"requests"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// RequestService owns the request lifecycle: creation, listing, updates,
// assignment, reopening and deletion, each mutation audited.
type RequestService interface {
	Create(ctx context.Context, input CreateRequestInput, meta AuditMeta) (*models.Request, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
	List(ctx context.Context, filter repositories.RequestFilter) (*RequestPage, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateRequestInput, meta AuditMeta) (*models.Request, error)
	Assign(ctx context.Context, requestID, assigneeID uuid.UUID, assignedBy *uuid.UUID, meta AuditMeta) (*models.Request, error)
	Reopen(ctx context.Context, id uuid.UUID, meta AuditMeta) (*models.Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, meta AuditMeta) (*models.Request, error)
	Delete(ctx context.Context, id uuid.UUID, meta AuditMeta) error
}

type requestService struct {
	requestRepo  repositories.RequestRepository
	categoryRepo repositories.CategoryRepository
	userRepo     repositories.UserRepository
	audit        AuditService
	logger       *zap.Logger
}

// NewRequestService creates a new request service with dependencies.
func NewRequestService(
	requestRepo repositories.RequestRepository,
	categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository,
	audit AuditService,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		requestRepo:  requestRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		audit:        audit,
		logger:       logger,
	}
}

var _ RequestService = (*requestService)(nil)

func (s *requestService) Create(ctx context.Context, input CreateRequestInput, meta AuditMeta) (*models.Request, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if input.RequesterName == "" {
		return nil, fmt.Errorf("%w: requester name is required", apperrors.ErrValidation)
	}
	if input.RequesterPhone == "" {
		return nil, fmt.Errorf("%w: requester phone is required", apperrors.ErrValidation)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, fmt.Errorf("%w: invalid priority %q", apperrors.ErrValidation, priority)
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", apperrors.ErrNotFound, *input.CategoryID)
			}
			return nil, err
		}
	}

	req := &models.Request{
		Type:                   input.Type,
		SubType:                input.SubType,
		CategoryID:             input.CategoryID,
		Title:                  input.Title,
		Description:            input.Description,
		RequesterName:          input.RequesterName,
		RequesterPhone:         input.RequesterPhone,
		RequesterAddress:       input.RequesterAddress,
		Latitude:               input.Latitude,
		Longitude:              input.Longitude,
		Constituency:           input.Constituency,
		District:               input.District,
		Status:                 models.StatusNew,
		Priority:               priority,
		EstimatedCost:          input.EstimatedCost,
		ExpectedResolutionDate: input.ExpectedResolutionDate,
		CreatedBy:              input.CreatedBy,
	}

	// Reference numbers carry 4 random digits per year, so collisions
	// happen in practice. Regenerate on unique violation.
	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		req.Reference = models.NewReference(time.Now())
		err = s.requestRepo.Create(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrDuplicateReference) {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to allocate reference number: %w", err)
	}

	s.audit.Log(ctx, models.AuditActionCreate, models.AuditEntityTypeRequest, req.ID, nil, meta)

	s.logger.Info("Request created",
		zap.String("request_id", req.ID.String()),
		zap.String("reference", req.Reference),
		zap.String("priority", req.Priority))

	return req, nil
}

func (s *requestService) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return s.requestRepo.GetByID(ctx, id)
}

func (s *requestService) List(ctx context.Context, filter repositories.RequestFilter) (*RequestPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	requests, total, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := total / filter.Limit
	if total%filter.Limit != 0 {
		totalPages++
	}

	return &RequestPage{
		Requests:   requests,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *requestService) Update(ctx context.Context, id uuid.UUID, input UpdateRequestInput, meta AuditMeta) (*models.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]models.FieldChange)

	setString := func(field string, dst *string, src *string) {
		if src != nil && *src != *dst {
			changed[field] = models.FieldChange{Old: *dst, New: *src}
			*dst = *src
		}
	}

	setString("type", &req.Type, input.Type)
	setString("sub_type", &req.SubType, input.SubType)
	setString("title", &req.Title, input.Title)
	setString("description", &req.Description, input.Description)
	setString("requester_name", &req.RequesterName, input.RequesterName)
	setString("requester_phone", &req.RequesterPhone, input.RequesterPhone)
	setString("requester_address", &req.RequesterAddress, input.RequesterAddress)
	setString("constituency", &req.Constituency, input.Constituency)
	setString("district", &req.District, input.District)

	if input.Priority != nil && *input.Priority != req.Priority {
		if !models.IsValidPriority(*input.Priority) {
			return nil, fmt.Errorf("%w: invalid priority %q", apperrors.ErrValidation, *input.Priority)
		}
		changed["priority"] = models.FieldChange{Old: req.Priority, New: *input.Priority}
		req.Priority = *input.Priority
	}

	if input.EstimatedCost != nil && *input.EstimatedCost != req.EstimatedCost {
		changed["estimated_cost"] = models.FieldChange{Old: req.EstimatedCost, New: *input.EstimatedCost}
		req.EstimatedCost = *input.EstimatedCost
	}

	if input.ExpectedResolutionDate != nil {
		changed["expected_resolution_date"] = models.FieldChange{Old: req.ExpectedResolutionDate, New: *input.ExpectedResolutionDate}
		req.ExpectedResolutionDate = input.ExpectedResolutionDate
	}

	if input.CategoryID != nil && (req.CategoryID == nil || *req.CategoryID != *input.CategoryID) {
		category, err := s.categoryRepo.GetByID(ctx, *input.CategoryID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", apperrors.ErrNotFound, *input.CategoryID)
			}
			return nil, err
		}
		var old any
		if req.CategoryID != nil {
			old = req.CategoryID.String()
		}
		changed["category_id"] = models.FieldChange{Old: old, New: category.ID.String()}
		req.CategoryID = &category.ID
		req.CategoryName = category.Name
	}

	if len(changed) == 0 {
		return req, nil
	}

	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionUpdate, models.AuditEntityTypeRequest, req.ID, changed, meta)

	return req, nil
}

// Assign moves a request to the given officer and forces status ASSIGNED.
// Assignment is a guarded transition: RESOLVED, CLOSED and WITHDRAWN
// requests must be reopened first.
func (s *requestService) Assign(ctx context.Context, requestID, assigneeID uuid.UUID, assignedBy *uuid.UUID, meta AuditMeta) (*models.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	assignee, err := s.userRepo.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: assignee %s", apperrors.ErrNotFound, assigneeID)
		}
		return nil, err
	}

	if !models.CanAssign(req.Status) {
		return nil, fmt.Errorf("%w: cannot assign request in status %s", apperrors.ErrInvalidTransition, req.Status)
	}

	changed := map[string]models.FieldChange{
		"status": {Old: req.Status, New: models.StatusAssigned},
	}
	var oldAssignee any
	if req.AssignedTo != nil {
		oldAssignee = req.AssignedTo.String()
	}
	changed["assigned_to"] = models.FieldChange{Old: oldAssignee, New: assignee.ID.String()}

	req.Status = models.StatusAssigned
	req.AssignedTo = &assignee.ID
	req.AssignedBy = assignedBy
	req.AssigneeName = assignee.Name

	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionAssign, models.AuditEntityTypeRequest, req.ID, changed, meta)

	s.logger.Info("Request assigned",
		zap.String("request_id", req.ID.String()),
		zap.String("assignee_id", assignee.ID.String()))

	return req, nil
}

// Reopen moves a RESOLVED or CLOSED request back to PENDING and clears
// its resolution timestamps.
func (s *requestService) Reopen(ctx context.Context, id uuid.UUID, meta AuditMeta) (*models.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanReopen(req.Status) {
		return nil, fmt.Errorf("%w: cannot reopen request in status %s", apperrors.ErrInvalidTransition, req.Status)
	}

	changed := map[string]models.FieldChange{
		"status": {Old: req.Status, New: models.StatusPending},
	}

	req.Status = models.StatusPending
	req.ActualResolutionDate = nil
	req.ClosedAt = nil

	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionReopen, models.AuditEntityTypeRequest, req.ID, changed, meta)

	return req, nil
}

// UpdateStatus moves a request along the lifecycle, setting resolution
// and closure timestamps on the RESOLVED and CLOSED edges.
func (s *requestService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, meta AuditMeta) (*models.Request, error) {
	if !models.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", apperrors.ErrValidation, status)
	}

	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(req.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, req.Status, status)
	}

	changed := map[string]models.FieldChange{
		"status": {Old: req.Status, New: status},
	}
	req.Status = status

	now := time.Now()
	switch status {
	case models.StatusResolved:
		req.ActualResolutionDate = &now
	case models.StatusClosed, models.StatusWithdrawn:
		req.ClosedAt = &now
	}

	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionUpdate, models.AuditEntityTypeRequest, req.ID, changed, meta)

	return req, nil
}

func (s *requestService) Delete(ctx context.Context, id uuid.UUID, meta AuditMeta) error {
	// Look up first so a missing id surfaces as not-found before the
	// audit entry is written.
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requestRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Log(ctx, models.AuditActionDelete, models.AuditEntityTypeRequest, req.ID, nil, meta)

	return nil
}
