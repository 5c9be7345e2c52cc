package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// AttachmentService stores uploaded files on disk and their metadata in
// the store.
type AttachmentService interface {
	Upload(ctx context.Context, requestID uuid.UUID, fileName, mimeType string, body io.Reader, uploadedBy *uuid.UUID) (*models.Attachment, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.Attachment, error)
}

type attachmentService struct {
	attachmentRepo repositories.AttachmentRepository
	requestRepo    repositories.RequestRepository
	uploadDir      string
	logger         *zap.Logger
}

// NewAttachmentService creates a new attachment service writing files
// under uploadDir.
func NewAttachmentService(
	attachmentRepo repositories.AttachmentRepository,
	requestRepo repositories.RequestRepository,
	uploadDir string,
	logger *zap.Logger,
) AttachmentService {
	return &attachmentService{
		attachmentRepo: attachmentRepo,
		requestRepo:    requestRepo,
		uploadDir:      uploadDir,
		logger:         logger,
	}
}

var _ AttachmentService = (*attachmentService)(nil)

func (s *attachmentService) Upload(ctx context.Context, requestID uuid.UUID, fileName, mimeType string, body io.Reader, uploadedBy *uuid.UUID) (*models.Attachment, error) {
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", apperrors.ErrValidation)
	}

	// The parent request must exist before anything hits disk.
	if _, err := s.requestRepo.GetByID(ctx, requestID); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.uploadDir, requestID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Stored under a fresh UUID; the original name survives only in
	// metadata so path traversal in fileName is inert.
	id := uuid.New()
	path := filepath.Join(dir, id.String()+filepath.Ext(filepath.Base(fileName)))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, body)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	attachment := &models.Attachment{
		ID:         id,
		RequestID:  requestID,
		FileName:   filepath.Base(fileName),
		FilePath:   path,
		MimeType:   mimeType,
		SizeBytes:  size,
		UploadedBy: uploadedBy,
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		os.Remove(path)
		return nil, err
	}

	return attachment, nil
}

func (s *attachmentService) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.Attachment, error) {
	if _, err := s.requestRepo.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByRequest(ctx, requestID)
}
