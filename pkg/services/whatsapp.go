package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// whatsappTitleLimit caps the request title derived from a raw message.
const whatsappTitleLimit = 80

// WhatsappService owns the inbound message review queue. Approving a
// message creates a grievance request from its raw text and links the
// message to it, so the queue and the request store stay consistent.
type WhatsappService interface {
	Ingest(ctx context.Context, phone, rawText string) (*models.WhatsappMessage, error)
	ListPending(ctx context.Context) ([]*models.WhatsappMessage, error)
	Approve(ctx context.Context, id uuid.UUID, meta AuditMeta) (*models.WhatsappMessage, *models.Request, error)
	Reject(ctx context.Context, id uuid.UUID, meta AuditMeta) (*models.WhatsappMessage, error)
}

type whatsappService struct {
	whatsappRepo repositories.WhatsappRepository
	requests     RequestService
	audit        AuditService
	logger       *zap.Logger
}

// NewWhatsappService creates a new WhatsApp intake service.
func NewWhatsappService(
	whatsappRepo repositories.WhatsappRepository,
	requests RequestService,
	audit AuditService,
	logger *zap.Logger,
) WhatsappService {
	return &whatsappService{
		whatsappRepo: whatsappRepo,
		requests:     requests,
		audit:        audit,
		logger:       logger,
	}
}

var _ WhatsappService = (*whatsappService)(nil)

func (s *whatsappService) Ingest(ctx context.Context, phone, rawText string) (*models.WhatsappMessage, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: message text is required", apperrors.ErrValidation)
	}

	msg := &models.WhatsappMessage{
		Phone:       phone,
		RawText:     rawText,
		ParseStatus: models.ParseStatusPending,
	}

	if err := s.whatsappRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *whatsappService) ListPending(ctx context.Context) ([]*models.WhatsappMessage, error) {
	return s.whatsappRepo.ListPending(ctx)
}

// Approve flips the message to APPROVED and creates the request it
// describes in the same call.
func (s *whatsappService) Approve(ctx context.Context, id uuid.UUID, meta AuditMeta) (*models.WhatsappMessage, *models.Request, error) {
	msg, err := s.whatsappRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if msg.ParseStatus != models.ParseStatusPending && msg.ParseStatus != models.ParseStatusParsed {
		return nil, nil, fmt.Errorf("%w: message is %s", apperrors.ErrInvalidTransition, msg.ParseStatus)
	}

	req, err := s.requests.Create(ctx, CreateRequestInput{
		Type:           "GRIEVANCE",
		Title:          messageTitle(msg.RawText),
		Description:    msg.RawText,
		RequesterName:  "WhatsApp " + msg.Phone,
		RequesterPhone: msg.Phone,
		CreatedBy:      meta.UserID,
	}, meta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request from message: %w", err)
	}

	if err := s.whatsappRepo.UpdateStatus(ctx, id, models.ParseStatusApproved, &req.ID); err != nil {
		return nil, nil, err
	}

	oldStatus := msg.ParseStatus
	msg.ParseStatus = models.ParseStatusApproved
	msg.RequestID = &req.ID

	s.audit.Log(ctx, models.AuditActionApprove, models.AuditEntityTypeWhatsapp, msg.ID, map[string]models.FieldChange{
		"parse_status": {Old: oldStatus, New: models.ParseStatusApproved},
		"request_id":   {Old: nil, New: req.ID.String()},
	}, meta)

	s.logger.Info("WhatsApp message approved",
		zap.String("message_id", msg.ID.String()),
		zap.String("request_id", req.ID.String()))

	return msg, req, nil
}

func (s *whatsappService) Reject(ctx context.Context, id uuid.UUID, meta AuditMeta) (*models.WhatsappMessage, error) {
	msg, err := s.whatsappRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if msg.ParseStatus != models.ParseStatusPending && msg.ParseStatus != models.ParseStatusParsed {
		return nil, fmt.Errorf("%w: message is %s", apperrors.ErrInvalidTransition, msg.ParseStatus)
	}

	if err := s.whatsappRepo.UpdateStatus(ctx, id, models.ParseStatusRejected, nil); err != nil {
		return nil, err
	}

	oldStatus := msg.ParseStatus
	msg.ParseStatus = models.ParseStatusRejected

	s.audit.Log(ctx, models.AuditActionUpdate, models.AuditEntityTypeWhatsapp, msg.ID, map[string]models.FieldChange{
		"parse_status": {Old: oldStatus, New: models.ParseStatusRejected},
	}, meta)

	return msg, nil
}

// messageTitle derives a short request title from the raw message text.
// The cap counts runes, not bytes: messages are frequently Telugu or
// Hindi, and a byte slice could split a multi-byte character and leave
// the title invalid UTF-8.
func messageTitle(rawText string) string {
	title := strings.TrimSpace(rawText)
	if idx := strings.IndexAny(title, "\r\n"); idx > 0 {
		title = title[:idx]
	}
	runes := []rune(title)
	if len(runes) > whatsappTitleLimit {
		title = string(runes[:whatsappTitleLimit])
	}
	return title
}
