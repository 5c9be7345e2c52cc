package models

import (
	"time"

	"github.com/google/uuid"
)

// WhatsApp message parse statuses.
const (
	ParseStatusPending  = "PENDING"
	ParseStatusParsed   = "PARSED"
	ParseStatusFailed   = "FAILED"
	ParseStatusApproved = "APPROVED"
	ParseStatusRejected = "REJECTED"
)

// WhatsappMessage is an inbound message queued for PA review. Approving
// a message creates a Request from its raw text and links it back via
// RequestID.
type WhatsappMessage struct {
	ID          uuid.UUID  `json:"id"`
	Phone       string     `json:"phone"`
	RawText     string     `json:"raw_text"`
	ParseStatus string     `json:"parse_status"`
	RequestID   *uuid.UUID `json:"request_id,omitempty"`
	ReceivedAt  time.Time  `json:"received_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
