package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/database"
	"github.com/civicworks/grievance-engine/pkg/models"
)

// RequestFilter narrows List results. Zero values mean "no filter" for
// that dimension.
type RequestFilter struct {
	Status       string
	Type         string
	Priority     string
	AssignedTo   *uuid.UUID
	CategoryID   *uuid.UUID
	District     string
	Constituency string
	Page         int
	Limit        int
}

// RequestRepository defines data access for requests, including the
// read-only aggregation queries behind the dashboard.
type RequestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	GetByReference(ctx context.Context, reference string) (*models.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]*models.Request, int, error)
	Update(ctx context.Context, req *models.Request) error
	Delete(ctx context.Context, id uuid.UUID) error

	OverallStats(ctx context.Context, f models.DashboardFilter) (*models.OverallStats, error)
	CountByStatus(ctx context.Context, f models.DashboardFilter) ([]models.StatusCount, error)
	CountByPriority(ctx context.Context, f models.DashboardFilter) ([]models.PriorityCount, error)
	CountByCategory(ctx context.Context, f models.DashboardFilter) ([]models.CategoryCount, error)
	TopDistricts(ctx context.Context, f models.DashboardFilter, limit int) ([]models.DistrictStats, error)
	Recent(ctx context.Context, f models.DashboardFilter, limit int) ([]*models.Request, error)
	CriticalCount(ctx context.Context, f models.DashboardFilter) (int, error)
	OverdueCount(ctx context.Context, f models.DashboardFilter, now time.Time) (int, error)
	ResolvedStats(ctx context.Context, f models.DashboardFilter) (*models.ResolvedStats, error)
	MonthlyTrend(ctx context.Context, f models.DashboardFilter) ([]models.MonthlyTrendPoint, error)
	OfficerWorkload(ctx context.Context, f models.DashboardFilter, limit int) ([]models.OfficerWorkload, error)
}

// requestRepository implements RequestRepository using PostgreSQL.
type requestRepository struct {
	db *database.DB
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *database.DB) RequestRepository {
	return &requestRepository{db: db}
}

var _ RequestRepository = (*requestRepository)(nil)

const requestColumns = `
	r.id, r.reference, r.type, r.sub_type, r.category_id, r.title, r.description,
	r.requester_name, r.requester_phone, r.requester_address, r.latitude, r.longitude,
	r.constituency, r.district, r.status, r.priority,
	r.assigned_to, r.assigned_by, r.created_by,
	r.estimated_cost, r.expected_resolution_date, r.actual_resolution_date,
	r.created_at, r.updated_at, r.closed_at,
	COALESCE(c.name, ''), COALESCE(u.name, '')`

const requestJoins = `
	FROM requests r
	LEFT JOIN categories c ON c.id = r.category_id
	LEFT JOIN users u ON u.id = r.assigned_to`

func (r *requestRepository) Create(ctx context.Context, req *models.Request) error {
	now := time.Now()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	query := `
		INSERT INTO requests (
			id, reference, type, sub_type, category_id, title, description,
			requester_name, requester_phone, requester_address, latitude, longitude,
			constituency, district, status, priority,
			assigned_to, assigned_by, created_by,
			estimated_cost, expected_resolution_date, actual_resolution_date,
			created_at, updated_at, closed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)`

	_, err := r.db.Exec(ctx, query,
		req.ID, req.Reference, req.Type, req.SubType, req.CategoryID, req.Title, req.Description,
		req.RequesterName, req.RequesterPhone, req.RequesterAddress, req.Latitude, req.Longitude,
		req.Constituency, req.District, req.Status, req.Priority,
		req.AssignedTo, req.AssignedBy, req.CreatedBy,
		req.EstimatedCost, req.ExpectedResolutionDate, req.ActualResolutionDate,
		req.CreatedAt, req.UpdatedAt, req.ClosedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	query := `SELECT` + requestColumns + requestJoins + ` WHERE r.id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *requestRepository) GetByReference(ctx context.Context, reference string) (*models.Request, error) {
	query := `SELECT` + requestColumns + requestJoins + ` WHERE r.reference = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, reference))
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]*models.Request, int, error) {
	where, args := listPredicate(filter)

	countQuery := `SELECT COUNT(*) FROM requests r` + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := `SELECT` + requestColumns + requestJoins + where +
		fmt.Sprintf(` ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) Update(ctx context.Context, req *models.Request) error {
	req.UpdatedAt = time.Now()

	query := `
		UPDATE requests SET
			type = $1, sub_type = $2, category_id = $3, title = $4, description = $5,
			requester_name = $6, requester_phone = $7, requester_address = $8,
			latitude = $9, longitude = $10, constituency = $11, district = $12,
			status = $13, priority = $14,
			assigned_to = $15, assigned_by = $16,
			estimated_cost = $17, expected_resolution_date = $18, actual_resolution_date = $19,
			updated_at = $20, closed_at = $21
		WHERE id = $22`

	result, err := r.db.Exec(ctx, query,
		req.Type, req.SubType, req.CategoryID, req.Title, req.Description,
		req.RequesterName, req.RequesterPhone, req.RequesterAddress,
		req.Latitude, req.Longitude, req.Constituency, req.District,
		req.Status, req.Priority,
		req.AssignedTo, req.AssignedBy,
		req.EstimatedCost, req.ExpectedResolutionDate, req.ActualResolutionDate,
		req.UpdatedAt, req.ClosedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *requestRepository) OverallStats(ctx context.Context, f models.DashboardFilter) (*models.OverallStats, error) {
	where, args := dashboardPredicate(f)

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(r.estimated_cost), 0),
		       COALESCE(AVG(r.estimated_cost), 0)
		FROM requests r` + where

	var stats models.OverallStats
	err := r.db.QueryRow(ctx, query, args...).Scan(&stats.TotalCount, &stats.TotalCost, &stats.AvgCost)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}

func (r *requestRepository) CountByStatus(ctx context.Context, f models.DashboardFilter) ([]models.StatusCount, error) {
	where, args := dashboardPredicate(f)

	query := `SELECT r.status, COUNT(*) FROM requests r` + where + ` GROUP BY r.status ORDER BY COUNT(*) DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	var counts []models.StatusCount
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

func (r *requestRepository) CountByPriority(ctx context.Context, f models.DashboardFilter) ([]models.PriorityCount, error) {
	where, args := dashboardPredicate(f)

	query := `SELECT r.priority, COUNT(*) FROM requests r` + where + ` GROUP BY r.priority ORDER BY COUNT(*) DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count by priority: %w", err)
	}
	defer rows.Close()

	var counts []models.PriorityCount
	for rows.Next() {
		var pc models.PriorityCount
		if err := rows.Scan(&pc.Priority, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan priority count: %w", err)
		}
		counts = append(counts, pc)
	}
	return counts, rows.Err()
}

func (r *requestRepository) CountByCategory(ctx context.Context, f models.DashboardFilter) ([]models.CategoryCount, error) {
	where, args := dashboardPredicate(f)

	query := `
		SELECT r.category_id, COALESCE(c.name, ''), COALESCE(c.color, ''), COUNT(*)
		FROM requests r
		JOIN categories c ON c.id = r.category_id` +
		and(where, "r.category_id IS NOT NULL") + `
		GROUP BY r.category_id, c.name, c.color
		ORDER BY COUNT(*) DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	defer rows.Close()

	var counts []models.CategoryCount
	for rows.Next() {
		var cc models.CategoryCount
		var categoryID uuid.UUID
		if err := rows.Scan(&categoryID, &cc.CategoryName, &cc.Color, &cc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		cc.CategoryID = categoryID.String()
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

func (r *requestRepository) TopDistricts(ctx context.Context, f models.DashboardFilter, limit int) ([]models.DistrictStats, error) {
	where, args := dashboardPredicate(f)

	query := `
		SELECT r.district, COUNT(*), COALESCE(SUM(r.estimated_cost), 0)
		FROM requests r` +
		and(where, "r.district <> ''") + `
		GROUP BY r.district
		ORDER BY COUNT(*) DESC
		LIMIT $` + fmt.Sprint(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top districts: %w", err)
	}
	defer rows.Close()

	var districts []models.DistrictStats
	for rows.Next() {
		var ds models.DistrictStats
		if err := rows.Scan(&ds.District, &ds.Count, &ds.TotalCost); err != nil {
			return nil, fmt.Errorf("failed to scan district stats: %w", err)
		}
		districts = append(districts, ds)
	}
	return districts, rows.Err()
}

func (r *requestRepository) Recent(ctx context.Context, f models.DashboardFilter, limit int) ([]*models.Request, error) {
	where, args := dashboardPredicate(f)

	query := `SELECT` + requestColumns + requestJoins + where +
		` ORDER BY r.created_at DESC LIMIT $` + fmt.Sprint(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

func (r *requestRepository) CriticalCount(ctx context.Context, f models.DashboardFilter) (int, error) {
	where, args := dashboardPredicate(f)

	query := `SELECT COUNT(*) FROM requests r` +
		and(where, fmt.Sprintf("r.priority IN ('%s', '%s')", models.PriorityUrgent, models.PriorityHigh))

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count critical requests: %w", err)
	}
	return count, nil
}

func (r *requestRepository) OverdueCount(ctx context.Context, f models.DashboardFilter, now time.Time) (int, error) {
	where, args := dashboardPredicate(f)

	query := `SELECT COUNT(*) FROM requests r` +
		and(where, fmt.Sprintf(
			"r.expected_resolution_date IS NOT NULL AND r.expected_resolution_date < $%d AND r.status <> '%s'",
			len(args)+1, models.StatusResolved))
	args = append(args, now)

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count overdue requests: %w", err)
	}
	return count, nil
}

func (r *requestRepository) ResolvedStats(ctx context.Context, f models.DashboardFilter) (*models.ResolvedStats, error) {
	where, args := dashboardPredicate(f)

	// Resolution days use whole-day floor per request, then summed, so
	// the service can take an exact mean.
	query := `
		SELECT
			COUNT(*) FILTER (WHERE r.status = '` + models.StatusResolved + `'),
			COALESCE(SUM(FLOOR(EXTRACT(EPOCH FROM (r.actual_resolution_date - r.created_at)) / 86400))
				FILTER (WHERE r.actual_resolution_date IS NOT NULL), 0),
			COUNT(*) FILTER (WHERE r.actual_resolution_date IS NOT NULL)
		FROM requests r` + where

	var stats models.ResolvedStats
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.ResolvedCount, &stats.TotalResolutionDays, &stats.WithResolutionDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved stats: %w", err)
	}
	return &stats, nil
}

func (r *requestRepository) MonthlyTrend(ctx context.Context, f models.DashboardFilter) ([]models.MonthlyTrendPoint, error) {
	// The trend always spans the whole selected year.
	yearFilter := f
	yearFilter.Month = 0
	where, args := dashboardPredicate(yearFilter)

	query := `
		SELECT
			EXTRACT(MONTH FROM r.created_at)::int AS month,
			COUNT(*),
			COALESCE(SUM(r.estimated_cost), 0),
			COUNT(*) FILTER (WHERE r.status = '` + models.StatusResolved + `')
		FROM requests r` + where + `
		GROUP BY month
		ORDER BY month`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly trend: %w", err)
	}
	defer rows.Close()

	var points []models.MonthlyTrendPoint
	for rows.Next() {
		var p models.MonthlyTrendPoint
		if err := rows.Scan(&p.Month, &p.Count, &p.TotalCost, &p.ResolvedCount); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *requestRepository) OfficerWorkload(ctx context.Context, f models.DashboardFilter, limit int) ([]models.OfficerWorkload, error) {
	where, args := dashboardPredicate(f)

	query := `
		SELECT r.assigned_to, COALESCE(u.name, ''), COUNT(*)
		FROM requests r
		JOIN users u ON u.id = r.assigned_to` +
		and(where, "r.assigned_to IS NOT NULL") + `
		GROUP BY r.assigned_to, u.name
		ORDER BY COUNT(*) DESC
		LIMIT $` + fmt.Sprint(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query officer workload: %w", err)
	}
	defer rows.Close()

	var workloads []models.OfficerWorkload
	for rows.Next() {
		var ow models.OfficerWorkload
		var officerID uuid.UUID
		if err := rows.Scan(&officerID, &ow.OfficerName, &ow.Count); err != nil {
			return nil, fmt.Errorf("failed to scan officer workload: %w", err)
		}
		ow.OfficerID = officerID.String()
		workloads = append(workloads, ow)
	}
	return workloads, rows.Err()
}

// listPredicate builds the WHERE clause for List from the filter's set
// dimensions.
func listPredicate(filter RequestFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("r.type = $%d", filter.Type)
	}
	if filter.Priority != "" {
		add("r.priority = $%d", filter.Priority)
	}
	if filter.AssignedTo != nil {
		add("r.assigned_to = $%d", *filter.AssignedTo)
	}
	if filter.CategoryID != nil {
		add("r.category_id = $%d", *filter.CategoryID)
	}
	if filter.District != "" {
		add("r.district = $%d", filter.District)
	}
	if filter.Constituency != "" {
		add("r.constituency = $%d", filter.Constituency)
	}

	return joinConditions(conditions), args
}

// dashboardPredicate builds the shared WHERE clause for all dashboard
// aggregations: created_at within the selected year (optionally month),
// optionally narrowed by district and constituency.
func dashboardPredicate(f models.DashboardFilter) (string, []any) {
	var conditions []string
	var args []any

	start := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	if f.Month >= 1 && f.Month <= 12 {
		start = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}

	args = append(args, start)
	conditions = append(conditions, fmt.Sprintf("r.created_at >= $%d", len(args)))
	args = append(args, end)
	conditions = append(conditions, fmt.Sprintf("r.created_at < $%d", len(args)))

	if f.District != "" {
		args = append(args, f.District)
		conditions = append(conditions, fmt.Sprintf("r.district = $%d", len(args)))
	}
	if f.Constituency != "" {
		args = append(args, f.Constituency)
		conditions = append(conditions, fmt.Sprintf("r.constituency = $%d", len(args)))
	}

	return joinConditions(conditions), args
}

func joinConditions(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	where := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}
	return where
}

// and appends an extra condition to an existing WHERE clause (or starts
// one if the clause is empty).
func and(where, condition string) string {
	if where == "" {
		return " WHERE " + condition
	}
	return where + " AND " + condition
}

func (r *requestRepository) scanOne(row pgx.Row) (*models.Request, error) {
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func scanRequest(row pgx.Row) (*models.Request, error) {
	var req models.Request
	err := row.Scan(
		&req.ID, &req.Reference, &req.Type, &req.SubType, &req.CategoryID, &req.Title, &req.Description,
		&req.RequesterName, &req.RequesterPhone, &req.RequesterAddress, &req.Latitude, &req.Longitude,
		&req.Constituency, &req.District, &req.Status, &req.Priority,
		&req.AssignedTo, &req.AssignedBy, &req.CreatedBy,
		&req.EstimatedCost, &req.ExpectedResolutionDate, &req.ActualResolutionDate,
		&req.CreatedAt, &req.UpdatedAt, &req.ClosedAt,
		&req.CategoryName, &req.AssigneeName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}
	return &req, nil
}

func scanRequests(rows pgx.Rows) ([]*models.Request, error) {
	var requests []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return requests, nil
}
