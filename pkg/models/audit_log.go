package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntityType values for audited entities.
const (
	AuditEntityTypeRequest     = "request"
	AuditEntityTypeCategory    = "category"
	AuditEntityTypeUser        = "user"
	AuditEntityTypeFundRequest = "fund_request"
	AuditEntityTypeWhatsapp    = "whatsapp_message"
)

// AuditAction values for the audited operation.
const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionAssign  = "assign"
	AuditActionApprove = "approve"
	AuditActionReopen  = "reopen"
)

// AuditLogEntry is one append-only record of a mutation. Entries are
// written after every create/update/assign/approve/delete and are never
// read back by application logic; they exist for external inspection.
type AuditLogEntry struct {
	ID         uuid.UUID `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`

	// What changed, as a typed per-field diff rather than opaque
	// old/new JSON blobs.
	ChangedFields map[string]FieldChange `json:"changed_fields,omitempty"`

	UserID    *uuid.UUID `json:"user_id,omitempty"`
	IPAddress string     `json:"ip_address,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FieldChange represents the old and new values for a changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}
