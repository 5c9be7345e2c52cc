package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// mockRequestRepo is an in-memory RequestRepository. Dashboard
// aggregations are configurable via func fields; nil fields return zero
// values.
type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.Request
	refs     map[string]bool

	createErr error
	updateErr error

	overallStatsFunc  func(f models.DashboardFilter) (*models.OverallStats, error)
	resolvedStatsFunc func(f models.DashboardFilter) (*models.ResolvedStats, error)
	criticalCount     int
	overdueCount      int
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{
		requests: make(map[uuid.UUID]*models.Request),
		refs:     make(map[string]bool),
	}
}

func (m *mockRequestRepo) Create(ctx context.Context, req *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if m.refs[req.Reference] {
		return apperrors.ErrDuplicateReference
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	clone := *req
	m.requests[req.ID] = &clone
	m.refs[req.Reference] = true
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (m *mockRequestRepo) GetByReference(ctx context.Context, reference string) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, req := range m.requests {
		if req.Reference == reference {
			clone := *req
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockRequestRepo) List(ctx context.Context, filter repositories.RequestFilter) ([]*models.Request, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.Request
	for _, req := range m.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.District != "" && req.District != filter.District {
			continue
		}
		clone := *req
		result = append(result, &clone)
	}
	return result, len(result), nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.requests[req.ID]; !ok {
		return apperrors.ErrNotFound
	}
	req.UpdatedAt = time.Now()
	clone := *req
	m.requests[req.ID] = &clone
	return nil
}

func (m *mockRequestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(m.refs, req.Reference)
	delete(m.requests, id)
	return nil
}

func (m *mockRequestRepo) OverallStats(ctx context.Context, f models.DashboardFilter) (*models.OverallStats, error) {
	if m.overallStatsFunc != nil {
		return m.overallStatsFunc(f)
	}
	return &models.OverallStats{}, nil
}

func (m *mockRequestRepo) CountByStatus(ctx context.Context, f models.DashboardFilter) ([]models.StatusCount, error) {
	return nil, nil
}

func (m *mockRequestRepo) CountByPriority(ctx context.Context, f models.DashboardFilter) ([]models.PriorityCount, error) {
	return nil, nil
}

func (m *mockRequestRepo) CountByCategory(ctx context.Context, f models.DashboardFilter) ([]models.CategoryCount, error) {
	return nil, nil
}

func (m *mockRequestRepo) TopDistricts(ctx context.Context, f models.DashboardFilter, limit int) ([]models.DistrictStats, error) {
	return nil, nil
}

func (m *mockRequestRepo) Recent(ctx context.Context, f models.DashboardFilter, limit int) ([]*models.Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) CriticalCount(ctx context.Context, f models.DashboardFilter) (int, error) {
	return m.criticalCount, nil
}

func (m *mockRequestRepo) OverdueCount(ctx context.Context, f models.DashboardFilter, now time.Time) (int, error) {
	return m.overdueCount, nil
}

func (m *mockRequestRepo) ResolvedStats(ctx context.Context, f models.DashboardFilter) (*models.ResolvedStats, error) {
	if m.resolvedStatsFunc != nil {
		return m.resolvedStatsFunc(f)
	}
	return &models.ResolvedStats{}, nil
}

func (m *mockRequestRepo) MonthlyTrend(ctx context.Context, f models.DashboardFilter) ([]models.MonthlyTrendPoint, error) {
	return nil, nil
}

func (m *mockRequestRepo) OfficerWorkload(ctx context.Context, f models.DashboardFilter, limit int) ([]models.OfficerWorkload, error) {
	return nil, nil
}

var _ repositories.RequestRepository = (*mockRequestRepo)(nil)

// mockCategoryRepo is an in-memory CategoryRepository.
type mockCategoryRepo struct {
	categories map[uuid.UUID]*models.Category
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[uuid.UUID]*models.Category)}
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return category, nil
}

func (m *mockCategoryRepo) List(ctx context.Context, activeOnly bool) ([]*models.Category, error) {
	var result []*models.Category
	for _, c := range m.categories {
		if activeOnly && !c.Active {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

func (m *mockCategoryRepo) ListTree(ctx context.Context, activeOnly bool) ([]*models.Category, error) {
	var roots []*models.Category
	for _, c := range m.categories {
		if c.ParentID == nil {
			roots = append(roots, c)
		}
	}
	return roots, nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *models.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

var _ repositories.CategoryRepository = (*mockCategoryRepo)(nil)

// mockUserRepo is an in-memory UserRepository with soft deletes.
type mockUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := m.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) List(ctx context.Context, role string) ([]*models.User, error) {
	var result []*models.User
	for _, u := range m.users {
		if u.DeletedAt != nil {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	existing, ok := m.users[user.ID]
	if !ok || existing.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	user, ok := m.users[id]
	if !ok || user.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	user.DeletedAt = &now
	return nil
}

var _ repositories.UserRepository = (*mockUserRepo)(nil)

// mockFundRepo is an in-memory FundRequestRepository.
type mockFundRepo struct {
	funds map[uuid.UUID]*models.FundRequest
}

func newMockFundRepo() *mockFundRepo {
	return &mockFundRepo{funds: make(map[uuid.UUID]*models.FundRequest)}
}

func (m *mockFundRepo) Create(ctx context.Context, fund *models.FundRequest) error {
	if fund.ID == uuid.Nil {
		fund.ID = uuid.New()
	}
	m.funds[fund.ID] = fund
	return nil
}

func (m *mockFundRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.FundRequest, error) {
	fund, ok := m.funds[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return fund, nil
}

func (m *mockFundRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.FundRequest, error) {
	var result []*models.FundRequest
	for _, f := range m.funds {
		if f.RequestID == requestID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *mockFundRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, approvedBy *uuid.UUID) error {
	fund, ok := m.funds[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fund.Status = status
	fund.ApprovedBy = approvedBy
	return nil
}

var _ repositories.FundRequestRepository = (*mockFundRepo)(nil)

// mockWhatsappRepo is an in-memory WhatsappRepository.
type mockWhatsappRepo struct {
	messages map[uuid.UUID]*models.WhatsappMessage
}

func newMockWhatsappRepo() *mockWhatsappRepo {
	return &mockWhatsappRepo{messages: make(map[uuid.UUID]*models.WhatsappMessage)}
}

func (m *mockWhatsappRepo) Create(ctx context.Context, msg *models.WhatsappMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.ReceivedAt = time.Now()
	m.messages[msg.ID] = msg
	return nil
}

func (m *mockWhatsappRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WhatsappMessage, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *msg
	return &clone, nil
}

func (m *mockWhatsappRepo) ListPending(ctx context.Context) ([]*models.WhatsappMessage, error) {
	var result []*models.WhatsappMessage
	for _, msg := range m.messages {
		if msg.ParseStatus == models.ParseStatusPending {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (m *mockWhatsappRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, requestID *uuid.UUID) error {
	msg, ok := m.messages[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	msg.ParseStatus = status
	if requestID != nil {
		msg.RequestID = requestID
	}
	return nil
}

var _ repositories.WhatsappRepository = (*mockWhatsappRepo)(nil)

// mockAuditRepository records audit entries in memory.
type mockAuditRepository struct {
	entries []*models.AuditLogEntry
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepository) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.AuditLogEntry, error) {
	var result []*models.AuditLogEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			result = append(result, e)
		}
	}
	return result, nil
}

var _ repositories.AuditRepository = (*mockAuditRepository)(nil)

// lastAction returns the most recent entry's action, or "" when empty.
func (m *mockAuditRepository) lastAction() string {
	if len(m.entries) == 0 {
		return ""
	}
	return m.entries[len(m.entries)-1].Action
}
