package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// CreateFundRequestInput holds the fields accepted when requesting funds.
type CreateFundRequestInput struct {
	RequestID uuid.UUID
	Amount    float64
	Purpose   string
}

// FundService owns fund requests and their approval lifecycle:
// REQUESTED -> SANCTIONED -> RELEASED, or rejection from either
// non-terminal state.
type FundService interface {
	Create(ctx context.Context, input CreateFundRequestInput, meta AuditMeta) (*models.FundRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.FundRequest, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.FundRequest, error)
	// Approve moves a fund request to the given status with a transition
	// guard, recording the approver.
	Approve(ctx context.Context, id uuid.UUID, status string, approvedBy *uuid.UUID, meta AuditMeta) (*models.FundRequest, error)
}

type fundService struct {
	fundRepo    repositories.FundRequestRepository
	requestRepo repositories.RequestRepository
	audit       AuditService
	logger      *zap.Logger
}

// NewFundService creates a new fund service with dependencies.
func NewFundService(
	fundRepo repositories.FundRequestRepository,
	requestRepo repositories.RequestRepository,
	audit AuditService,
	logger *zap.Logger,
) FundService {
	return &fundService{
		fundRepo:    fundRepo,
		requestRepo: requestRepo,
		audit:       audit,
		logger:      logger,
	}
}

var _ FundService = (*fundService)(nil)

func (s *fundService) Create(ctx context.Context, input CreateFundRequestInput, meta AuditMeta) (*models.FundRequest, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if input.Purpose == "" {
		return nil, fmt.Errorf("%w: purpose is required", apperrors.ErrValidation)
	}

	// The parent request must exist.
	if _, err := s.requestRepo.GetByID(ctx, input.RequestID); err != nil {
		return nil, err
	}

	fund := &models.FundRequest{
		RequestID: input.RequestID,
		Amount:    input.Amount,
		Purpose:   input.Purpose,
		Status:    models.FundStatusRequested,
	}

	if err := s.fundRepo.Create(ctx, fund); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionCreate, models.AuditEntityTypeFundRequest, fund.ID, nil, meta)

	return fund, nil
}

func (s *fundService) Get(ctx context.Context, id uuid.UUID) (*models.FundRequest, error) {
	return s.fundRepo.GetByID(ctx, id)
}

func (s *fundService) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.FundRequest, error) {
	return s.fundRepo.ListByRequest(ctx, requestID)
}

func (s *fundService) Approve(ctx context.Context, id uuid.UUID, status string, approvedBy *uuid.UUID, meta AuditMeta) (*models.FundRequest, error) {
	fund, err := s.fundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransitionFund(fund.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, fund.Status, status)
	}

	changed := map[string]models.FieldChange{
		"status": {Old: fund.Status, New: status},
	}

	if err := s.fundRepo.UpdateStatus(ctx, id, status, approvedBy); err != nil {
		return nil, err
	}

	fund.Status = status
	fund.ApprovedBy = approvedBy

	s.audit.Log(ctx, models.AuditActionApprove, models.AuditEntityTypeFundRequest, fund.ID, changed, meta)

	s.logger.Info("Fund request status updated",
		zap.String("fund_id", fund.ID.String()),
		zap.String("status", status))

	return fund, nil
}
