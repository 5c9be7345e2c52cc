package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// AuditMeta carries the actor context recorded with every mutation.
type AuditMeta struct {
	UserID    *uuid.UUID
	IPAddress string
	UserAgent string
}

// AuditService records mutations to the append-only audit log.
type AuditService interface {
	// Log writes one audit entry. Failures are logged and swallowed so a
	// broken audit sink never fails the mutation that triggered it.
	Log(ctx context.Context, action, entityType string, entityID uuid.UUID, changed map[string]models.FieldChange, meta AuditMeta)

	// GetByEntity returns the audit trail for one entity, newest first.
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.AuditLogEntry, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new audit service.
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

var _ AuditService = (*auditService)(nil)

func (s *auditService) Log(ctx context.Context, action, entityType string, entityID uuid.UUID, changed map[string]models.FieldChange, meta AuditMeta) {
	entry := &models.AuditLogEntry{
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		ChangedFields: changed,
		UserID:        meta.UserID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to write audit log entry",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}

func (s *auditService) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.AuditLogEntry, error) {
	return s.auditRepo.GetByEntity(ctx, entityType, entityID)
}
