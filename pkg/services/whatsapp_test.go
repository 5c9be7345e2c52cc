package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
)

type whatsappFixture struct {
	svc          WhatsappService
	whatsappRepo *mockWhatsappRepo
	requestRepo  *mockRequestRepo
	auditRepo    *mockAuditRepository
}

func newWhatsappFixture() *whatsappFixture {
	whatsappRepo := newMockWhatsappRepo()
	requestRepo := newMockRequestRepo()
	auditRepo := &mockAuditRepository{}
	audit := NewAuditService(auditRepo, zap.NewNop())
	requests := NewRequestService(requestRepo, newMockCategoryRepo(), newMockUserRepo(), audit, zap.NewNop())

	return &whatsappFixture{
		svc:          NewWhatsappService(whatsappRepo, requests, audit, zap.NewNop()),
		whatsappRepo: whatsappRepo,
		requestRepo:  requestRepo,
		auditRepo:    auditRepo,
	}
}

func TestWhatsappService_Ingest(t *testing.T) {
	f := newWhatsappFixture()

	msg, err := f.svc.Ingest(context.Background(), "+919000000001", "No water in our street since Monday")
	require.NoError(t, err)

	assert.Equal(t, models.ParseStatusPending, msg.ParseStatus)
	assert.Nil(t, msg.RequestID)

	pending, err := f.svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestWhatsappService_Ingest_Validation(t *testing.T) {
	f := newWhatsappFixture()

	_, err := f.svc.Ingest(context.Background(), "", "text")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Ingest(context.Background(), "+919000000001", "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestWhatsappService_Approve_CreatesLinkedRequest(t *testing.T) {
	f := newWhatsappFixture()

	msg, err := f.svc.Ingest(context.Background(), "+919000000001", "Street light broken near temple\nPlease fix urgently")
	require.NoError(t, err)

	approved, req, err := f.svc.Approve(context.Background(), msg.ID, AuditMeta{})
	require.NoError(t, err)

	assert.Equal(t, models.ParseStatusApproved, approved.ParseStatus)
	require.NotNil(t, approved.RequestID)
	assert.Equal(t, req.ID, *approved.RequestID)

	// The request derives its title from the first line of the message.
	assert.Equal(t, "Street light broken near temple", req.Title)
	assert.Equal(t, "+919000000001", req.RequesterPhone)
	assert.Equal(t, models.StatusNew, req.Status)
	assert.True(t, models.IsValidReference(req.Reference))

	// Approval leaves the pending queue.
	pending, err := f.svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWhatsappService_Approve_AuditsPriorParseStatus(t *testing.T) {
	f := newWhatsappFixture()

	msg := &models.WhatsappMessage{
		Phone:       "+919000000001",
		RawText:     "Drainage overflow near school",
		ParseStatus: models.ParseStatusParsed,
	}
	require.NoError(t, f.whatsappRepo.Create(context.Background(), msg))

	_, _, err := f.svc.Approve(context.Background(), msg.ID, AuditMeta{})
	require.NoError(t, err)

	require.NotEmpty(t, f.auditRepo.entries)
	entry := f.auditRepo.entries[len(f.auditRepo.entries)-1]
	assert.Equal(t, models.AuditActionApprove, entry.Action)
	// The diff records the status the message actually had, not an
	// assumed PENDING.
	assert.Equal(t, models.ParseStatusParsed, entry.ChangedFields["parse_status"].Old)
	assert.Equal(t, models.ParseStatusApproved, entry.ChangedFields["parse_status"].New)
}

func TestWhatsappService_Approve_OnlyPending(t *testing.T) {
	f := newWhatsappFixture()

	msg, err := f.svc.Ingest(context.Background(), "+919000000001", "text")
	require.NoError(t, err)

	_, _, err = f.svc.Approve(context.Background(), msg.ID, AuditMeta{})
	require.NoError(t, err)

	// A second approval of the same message must fail.
	_, _, err = f.svc.Approve(context.Background(), msg.ID, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestWhatsappService_Reject(t *testing.T) {
	f := newWhatsappFixture()

	msg, err := f.svc.Ingest(context.Background(), "+919000000001", "spam")
	require.NoError(t, err)

	rejected, err := f.svc.Reject(context.Background(), msg.ID, AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ParseStatusRejected, rejected.ParseStatus)
	assert.Nil(t, rejected.RequestID)
	assert.Empty(t, f.requestRepo.requests, "rejection must not create a request")

	_, err = f.svc.Reject(context.Background(), msg.ID, AuditMeta{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestMessageTitle(t *testing.T) {
	assert.Equal(t, "short", messageTitle("  short  "))
	assert.Equal(t, "first line", messageTitle("first line\nsecond line"))

	long := strings.Repeat("x", 200)
	assert.Len(t, messageTitle(long), whatsappTitleLimit)
}

func TestMessageTitle_TruncatesOnRuneBoundary(t *testing.T) {
	// Telugu characters are 3 bytes each; a byte-based cap would cut
	// mid-character and yield invalid UTF-8.
	long := strings.Repeat("త", 200)
	title := messageTitle(long)

	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, whatsappTitleLimit, utf8.RuneCountInString(title))

	// Under the cap, non-ASCII text passes through untouched.
	short := strings.Repeat("త", 40)
	assert.Equal(t, short, messageTitle(short))
}
