package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

type requestFixture struct {
	svc          RequestService
	requestRepo  *mockRequestRepo
	categoryRepo *mockCategoryRepo
	userRepo     *mockUserRepo
	auditRepo    *mockAuditRepository
}

func newRequestFixture() *requestFixture {
	requestRepo := newMockRequestRepo()
	categoryRepo := newMockCategoryRepo()
	userRepo := newMockUserRepo()
	auditRepo := &mockAuditRepository{}
	audit := NewAuditService(auditRepo, zap.NewNop())

	return &requestFixture{
		svc:          NewRequestService(requestRepo, categoryRepo, userRepo, audit, zap.NewNop()),
		requestRepo:  requestRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
	}
}

func TestRequestService_Create(t *testing.T) {
	f := newRequestFixture()

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Type:           "GRIEVANCE",
		Title:          "Broken hand pump",
		RequesterName:  "Ravi Kumar",
		RequesterPhone: "+919000000001",
		District:       "Guntur",
	}, AuditMeta{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusNew, req.Status)
	assert.Equal(t, models.PriorityMedium, req.Priority, "priority defaults to MEDIUM")
	assert.True(t, models.IsValidReference(req.Reference), "reference %q must match GRV-YYYY-NNNN", req.Reference)
	assert.NotEqual(t, uuid.Nil, req.ID)

	require.Len(t, f.auditRepo.entries, 1)
	assert.Equal(t, models.AuditActionCreate, f.auditRepo.entries[0].Action)
	assert.Equal(t, models.AuditEntityTypeRequest, f.auditRepo.entries[0].EntityType)
}

func TestRequestService_Create_Validation(t *testing.T) {
	f := newRequestFixture()

	tests := []struct {
		name  string
		input CreateRequestInput
	}{
		{"missing title", CreateRequestInput{RequesterName: "A", RequesterPhone: "1"}},
		{"missing requester name", CreateRequestInput{Title: "T", RequesterPhone: "1"}},
		{"missing requester phone", CreateRequestInput{Title: "T", RequesterName: "A"}},
		{"invalid priority", CreateRequestInput{Title: "T", RequesterName: "A", RequesterPhone: "1", Priority: "EXTREME"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.input, AuditMeta{})
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	assert.Empty(t, f.auditRepo.entries, "failed creates must not be audited")
}

func TestRequestService_Create_UnknownCategory(t *testing.T) {
	f := newRequestFixture()

	categoryID := uuid.New()
	_, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title:          "T",
		RequesterName:  "A",
		RequesterPhone: "1",
		CategoryID:     &categoryID,
	}, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, f.requestRepo.requests)
}

func TestRequestService_Create_RetriesReferenceCollision(t *testing.T) {
	f := newRequestFixture()

	// Pre-claim a large slice of the reference space; creation must land
	// on a free reference within the retry budget or fail cleanly.
	year := time.Now().Year()
	for i := 0; i < 10000; i += 2 {
		f.requestRepo.refs[fmt.Sprintf("GRV-%04d-%04d", year, i)] = true
	}

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title:          "T",
		RequesterName:  "A",
		RequesterPhone: "1",
	}, AuditMeta{})
	if err != nil {
		assert.ErrorIs(t, err, apperrors.ErrDuplicateReference)
		return
	}
	assert.True(t, models.IsValidReference(req.Reference))
}

func TestRequestService_Assign(t *testing.T) {
	f := newRequestFixture()

	officer := &models.User{Name: "Officer", Email: "o@example.com", Role: models.RoleFieldOfficer, Active: true}
	require.NoError(t, f.userRepo.Create(context.Background(), officer))

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title:          "T",
		RequesterName:  "A",
		RequesterPhone: "1",
	}, AuditMeta{})
	require.NoError(t, err)

	paID := uuid.New()
	assigned, err := f.svc.Assign(context.Background(), req.ID, officer.ID, &paID, AuditMeta{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAssigned, assigned.Status)
	assert.Equal(t, officer.ID, *assigned.AssignedTo)
	assert.Equal(t, paID, *assigned.AssignedBy)
	assert.Equal(t, "Officer", assigned.AssigneeName)
	assert.Equal(t, models.AuditActionAssign, f.auditRepo.lastAction())
}

func TestRequestService_Assign_GuardsTerminalStatuses(t *testing.T) {
	f := newRequestFixture()

	officer := &models.User{Name: "Officer", Email: "o@example.com", Role: models.RoleFieldOfficer}
	require.NoError(t, f.userRepo.Create(context.Background(), officer))

	for _, status := range []string{models.StatusResolved, models.StatusClosed, models.StatusWithdrawn} {
		t.Run(status, func(t *testing.T) {
			req := &models.Request{Reference: models.NewReference(time.Now()), Title: "T", Status: status}
			require.NoError(t, f.requestRepo.Create(context.Background(), req))

			_, err := f.svc.Assign(context.Background(), req.ID, officer.ID, nil, AuditMeta{})
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

			stored, err := f.requestRepo.GetByID(context.Background(), req.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status, "a rejected assign must not mutate the request")
			assert.Nil(t, stored.AssignedTo)
		})
	}
}

func TestRequestService_Assign_Reassignment(t *testing.T) {
	f := newRequestFixture()

	first := &models.User{Name: "First", Email: "f@example.com", Role: models.RoleFieldOfficer}
	second := &models.User{Name: "Second", Email: "s@example.com", Role: models.RoleFieldOfficer}
	require.NoError(t, f.userRepo.Create(context.Background(), first))
	require.NoError(t, f.userRepo.Create(context.Background(), second))

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title: "T", RequesterName: "A", RequesterPhone: "1",
	}, AuditMeta{})
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), req.ID, first.ID, nil, AuditMeta{})
	require.NoError(t, err)

	// Re-assigning an already ASSIGNED request is allowed.
	reassigned, err := f.svc.Assign(context.Background(), req.ID, second.ID, nil, AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, second.ID, *reassigned.AssignedTo)
}

func TestRequestService_Assign_UnknownAssignee(t *testing.T) {
	f := newRequestFixture()

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title: "T", RequesterName: "A", RequesterPhone: "1",
	}, AuditMeta{})
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), req.ID, uuid.New(), nil, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRequestService_Reopen(t *testing.T) {
	f := newRequestFixture()

	now := time.Now()
	req := &models.Request{
		Reference:            models.NewReference(now),
		Title:                "T",
		Status:               models.StatusResolved,
		ActualResolutionDate: &now,
	}
	require.NoError(t, f.requestRepo.Create(context.Background(), req))

	reopened, err := f.svc.Reopen(context.Background(), req.ID, AuditMeta{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, reopened.Status)
	assert.Nil(t, reopened.ActualResolutionDate, "reopening clears the resolution date")
	assert.Nil(t, reopened.ClosedAt)
	assert.Equal(t, models.AuditActionReopen, f.auditRepo.lastAction())
}

func TestRequestService_Reopen_OnlyFromTerminal(t *testing.T) {
	f := newRequestFixture()

	for _, status := range []string{models.StatusNew, models.StatusPending, models.StatusAssigned, models.StatusInProgress, models.StatusWithdrawn} {
		t.Run(status, func(t *testing.T) {
			req := &models.Request{Reference: models.NewReference(time.Now()), Title: "T", Status: status}
			require.NoError(t, f.requestRepo.Create(context.Background(), req))

			_, err := f.svc.Reopen(context.Background(), req.ID, AuditMeta{})
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		})
	}
}

func TestRequestService_UpdateStatus_SetsResolutionTimestamps(t *testing.T) {
	f := newRequestFixture()

	req := &models.Request{Reference: models.NewReference(time.Now()), Title: "T", Status: models.StatusInProgress}
	require.NoError(t, f.requestRepo.Create(context.Background(), req))

	resolved, err := f.svc.UpdateStatus(context.Background(), req.ID, models.StatusResolved, AuditMeta{})
	require.NoError(t, err)
	require.NotNil(t, resolved.ActualResolutionDate)
	assert.Nil(t, resolved.ClosedAt)

	closed, err := f.svc.UpdateStatus(context.Background(), req.ID, models.StatusClosed, AuditMeta{})
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
}

func TestRequestService_UpdateStatus_RejectsInvalidTransition(t *testing.T) {
	f := newRequestFixture()

	req := &models.Request{Reference: models.NewReference(time.Now()), Title: "T", Status: models.StatusNew}
	require.NoError(t, f.requestRepo.Create(context.Background(), req))

	_, err := f.svc.UpdateStatus(context.Background(), req.ID, models.StatusResolved, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(context.Background(), req.ID, "NOT_A_STATUS", AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRequestService_Update_AuditsFieldDiffs(t *testing.T) {
	f := newRequestFixture()

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title:          "Old title",
		RequesterName:  "A",
		RequesterPhone: "1",
		District:       "Guntur",
	}, AuditMeta{})
	require.NoError(t, err)

	newTitle := "New title"
	newPriority := models.PriorityUrgent
	updated, err := f.svc.Update(context.Background(), req.ID, UpdateRequestInput{
		Title:    &newTitle,
		Priority: &newPriority,
	}, AuditMeta{})
	require.NoError(t, err)

	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, models.PriorityUrgent, updated.Priority)

	entry := f.auditRepo.entries[len(f.auditRepo.entries)-1]
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	require.Len(t, entry.ChangedFields, 2)
	assert.Equal(t, "Old title", entry.ChangedFields["title"].Old)
	assert.Equal(t, "New title", entry.ChangedFields["title"].New)
	assert.Equal(t, models.PriorityMedium, entry.ChangedFields["priority"].Old)
}

func TestRequestService_Update_NoopSkipsAudit(t *testing.T) {
	f := newRequestFixture()

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title: "T", RequesterName: "A", RequesterPhone: "1",
	}, AuditMeta{})
	require.NoError(t, err)
	audited := len(f.auditRepo.entries)

	sameTitle := "T"
	_, err = f.svc.Update(context.Background(), req.ID, UpdateRequestInput{Title: &sameTitle}, AuditMeta{})
	require.NoError(t, err)

	assert.Len(t, f.auditRepo.entries, audited, "a no-op update writes no audit entry")
}

func TestRequestService_Delete(t *testing.T) {
	f := newRequestFixture()

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Title: "T", RequesterName: "A", RequesterPhone: "1",
	}, AuditMeta{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), req.ID, AuditMeta{}))
	assert.Equal(t, models.AuditActionDelete, f.auditRepo.lastAction())

	_, err = f.svc.Get(context.Background(), req.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = f.svc.Delete(context.Background(), uuid.New(), AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRequestService_List_Defaults(t *testing.T) {
	f := newRequestFixture()

	page, err := f.svc.List(context.Background(), repositories.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 0, page.TotalPages)
}
