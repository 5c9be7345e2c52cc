package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
)

func TestAuditService_Log(t *testing.T) {
	repo := &mockAuditRepository{}
	svc := NewAuditService(repo, zap.NewNop())

	entityID := uuid.New()
	userID := uuid.New()

	svc.Log(context.Background(), models.AuditActionUpdate, models.AuditEntityTypeRequest, entityID,
		map[string]models.FieldChange{
			"status": {Old: models.StatusNew, New: models.StatusAssigned},
		},
		AuditMeta{UserID: &userID, IPAddress: "10.0.0.1", UserAgent: "test-agent"})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Equal(t, models.AuditEntityTypeRequest, entry.EntityType)
	assert.Equal(t, entityID, entry.EntityID)
	assert.Equal(t, userID, *entry.UserID)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	assert.Equal(t, models.StatusNew, entry.ChangedFields["status"].Old)
}

// failingAuditRepo always errors on Create.
type failingAuditRepo struct {
	mockAuditRepository
}

func (f *failingAuditRepo) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	return errors.New("connection reset")
}

func TestAuditService_Log_SwallowsRepoErrors(t *testing.T) {
	svc := NewAuditService(&failingAuditRepo{}, zap.NewNop())

	// Audit failures must never surface to the caller.
	svc.Log(context.Background(), models.AuditActionCreate, models.AuditEntityTypeRequest, uuid.New(), nil, AuditMeta{})
}

func TestAuditService_GetByEntity(t *testing.T) {
	repo := &mockAuditRepository{}
	svc := NewAuditService(repo, zap.NewNop())

	target := uuid.New()
	svc.Log(context.Background(), models.AuditActionCreate, models.AuditEntityTypeRequest, target, nil, AuditMeta{})
	svc.Log(context.Background(), models.AuditActionCreate, models.AuditEntityTypeRequest, uuid.New(), nil, AuditMeta{})
	svc.Log(context.Background(), models.AuditActionCreate, models.AuditEntityTypeUser, target, nil, AuditMeta{})

	entries, err := svc.GetByEntity(context.Background(), models.AuditEntityTypeRequest, target)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
