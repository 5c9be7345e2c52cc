package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/grievance-engine/pkg/database"
	"github.com/civicworks/grievance-engine/pkg/models"
)

// AttachmentRepository defines data access for attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.Attachment, error)
}

type attachmentRepository struct {
	db *database.DB
}

// NewAttachmentRepository creates a new attachment repository.
func NewAttachmentRepository(db *database.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

var _ AttachmentRepository = (*attachmentRepository)(nil)

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	attachment.CreatedAt = time.Now()

	query := `
		INSERT INTO attachments (id, request_id, file_name, file_path, mime_type, size_bytes, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		attachment.ID, attachment.RequestID, attachment.FileName, attachment.FilePath,
		attachment.MimeType, attachment.SizeBytes, attachment.UploadedBy, attachment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

func (r *attachmentRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.Attachment, error) {
	query := `
		SELECT id, request_id, file_name, file_path, mime_type, size_bytes, uploaded_by, created_at
		FROM attachments
		WHERE request_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		var a models.Attachment
		err := rows.Scan(
			&a.ID, &a.RequestID, &a.FileName, &a.FilePath,
			&a.MimeType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return attachments, nil
}
