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

// WhatsappRepository defines data access for inbound WhatsApp messages.
type WhatsappRepository interface {
	Create(ctx context.Context, msg *models.WhatsappMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WhatsappMessage, error)
	ListPending(ctx context.Context) ([]*models.WhatsappMessage, error)
	// UpdateStatus sets the parse status and, when requestID is non-nil,
	// links the message to the request created from it.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, requestID *uuid.UUID) error
}

type whatsappRepository struct {
	db *database.DB
}

// NewWhatsappRepository creates a new WhatsApp message repository.
func NewWhatsappRepository(db *database.DB) WhatsappRepository {
	return &whatsappRepository{db: db}
}

var _ WhatsappRepository = (*whatsappRepository)(nil)

const whatsappColumns = `id, phone, raw_text, parse_status, request_id, received_at, updated_at`

func (r *whatsappRepository) Create(ctx context.Context, msg *models.WhatsappMessage) error {
	now := time.Now()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = now
	}
	msg.UpdatedAt = now
	if msg.ParseStatus == "" {
		msg.ParseStatus = models.ParseStatusPending
	}

	query := `
		INSERT INTO whatsapp_messages (` + whatsappColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.Phone, msg.RawText, msg.ParseStatus,
		msg.RequestID, msg.ReceivedAt, msg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create whatsapp message: %w", err)
	}

	return nil
}

func (r *whatsappRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WhatsappMessage, error) {
	query := `SELECT ` + whatsappColumns + ` FROM whatsapp_messages WHERE id = $1`

	msg, err := scanWhatsappMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (r *whatsappRepository) ListPending(ctx context.Context) ([]*models.WhatsappMessage, error) {
	query := `
		SELECT ` + whatsappColumns + `
		FROM whatsapp_messages
		WHERE parse_status = $1
		ORDER BY received_at`

	rows, err := r.db.Query(ctx, query, models.ParseStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.WhatsappMessage
	for rows.Next() {
		msg, err := scanWhatsappMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func (r *whatsappRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, requestID *uuid.UUID) error {
	query := `
		UPDATE whatsapp_messages
		SET parse_status = $1,
		    request_id = COALESCE($2, request_id),
		    updated_at = $3
		WHERE id = $4`

	result, err := r.db.Exec(ctx, query, status, requestID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanWhatsappMessage(row pgx.Row) (*models.WhatsappMessage, error) {
	var msg models.WhatsappMessage
	err := row.Scan(
		&msg.ID, &msg.Phone, &msg.RawText, &msg.ParseStatus,
		&msg.RequestID, &msg.ReceivedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan whatsapp message: %w", err)
	}
	return &msg, nil
}
