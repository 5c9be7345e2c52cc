package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
)

func newCategoryService() (CategoryService, *mockAuditRepository) {
	auditRepo := &mockAuditRepository{}
	svc := NewCategoryService(newMockCategoryRepo(), NewAuditService(auditRepo, zap.NewNop()), zap.NewNop())
	return svc, auditRepo
}

func TestCategoryService_Create(t *testing.T) {
	svc, auditRepo := newCategoryService()

	root, err := svc.Create(context.Background(), CreateCategoryInput{
		Name:  "Water Supply",
		Color: "#2196f3",
	}, AuditMeta{})
	require.NoError(t, err)
	assert.True(t, root.Active)

	child, err := svc.Create(context.Background(), CreateCategoryInput{
		Name:     "Drinking Water",
		ParentID: &root.ID,
	}, AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *child.ParentID)
	assert.Len(t, auditRepo.entries, 2)
}

func TestCategoryService_Create_RejectsDeepNesting(t *testing.T) {
	svc, _ := newCategoryService()

	root, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Root"}, AuditMeta{})
	require.NoError(t, err)

	child, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Child", ParentID: &root.ID}, AuditMeta{})
	require.NoError(t, err)

	// A child cannot itself become a parent.
	_, err = svc.Create(context.Background(), CreateCategoryInput{Name: "Grandchild", ParentID: &child.ID}, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCategoryService_Create_Validation(t *testing.T) {
	svc, _ := newCategoryService()

	_, err := svc.Create(context.Background(), CreateCategoryInput{}, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	missing := uuid.New()
	_, err = svc.Create(context.Background(), CreateCategoryInput{Name: "X", ParentID: &missing}, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCategoryService_Update_Deactivate(t *testing.T) {
	svc, auditRepo := newCategoryService()

	category, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Roads"}, AuditMeta{})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), category.ID, UpdateCategoryInput{Active: &inactive}, AuditMeta{})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	entry := auditRepo.entries[len(auditRepo.entries)-1]
	assert.Equal(t, true, entry.ChangedFields["active"].Old)
	assert.Equal(t, false, entry.ChangedFields["active"].New)
}

func TestCategoryService_Delete_NotFound(t *testing.T) {
	svc, auditRepo := newCategoryService()

	err := svc.Delete(context.Background(), uuid.New(), AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, auditRepo.entries)
}
