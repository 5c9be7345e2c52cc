package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/database"
	"github.com/civicworks/grievance-engine/pkg/models"
)

// FundRequestRepository defines data access for fund requests.
type FundRequestRepository interface {
	Create(ctx context.Context, fund *models.FundRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FundRequest, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.FundRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, approvedBy *uuid.UUID) error
}

type fundRequestRepository struct {
	db *database.DB
}

// NewFundRequestRepository creates a new fund request repository.
func NewFundRequestRepository(db *database.DB) FundRequestRepository {
	return &fundRequestRepository{db: db}
}

var _ FundRequestRepository = (*fundRequestRepository)(nil)

const fundColumns = `id, request_id, amount, purpose, status, approved_by, created_at, updated_at`

func (r *fundRequestRepository) Create(ctx context.Context, fund *models.FundRequest) error {
	now := time.Now()
	if fund.ID == uuid.Nil {
		fund.ID = uuid.New()
	}
	fund.CreatedAt = now
	fund.UpdatedAt = now

	query := `
		INSERT INTO fund_requests (` + fundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		fund.ID, fund.RequestID, fund.Amount, fund.Purpose,
		fund.Status, fund.ApprovedBy, fund.CreatedAt, fund.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create fund request: %w", err)
	}

	return nil
}

func (r *fundRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FundRequest, error) {
	query := `SELECT ` + fundColumns + ` FROM fund_requests WHERE id = $1`

	fund, err := scanFundRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return fund, nil
}

func (r *fundRequestRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.FundRequest, error) {
	query := `SELECT ` + fundColumns + ` FROM fund_requests WHERE request_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fund requests: %w", err)
	}
	defer rows.Close()

	var funds []*models.FundRequest
	for rows.Next() {
		fund, err := scanFundRequest(rows)
		if err != nil {
			return nil, err
		}
		funds = append(funds, fund)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund requests: %w", err)
	}

	return funds, nil
}

func (r *fundRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, approvedBy *uuid.UUID) error {
	query := `
		UPDATE fund_requests
		SET status = $1, approved_by = $2, updated_at = $3
		WHERE id = $4`

	result, err := r.db.Exec(ctx, query, status, approvedBy, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update fund request status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanFundRequest(row pgx.Row) (*models.FundRequest, error) {
	var fund models.FundRequest
	err := row.Scan(
		&fund.ID, &fund.RequestID, &fund.Amount, &fund.Purpose,
		&fund.Status, &fund.ApprovedBy, &fund.CreatedAt, &fund.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fund request: %w", err)
	}
	return &fund, nil
}
