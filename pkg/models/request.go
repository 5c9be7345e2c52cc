package models

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Request statuses. A request moves NEW -> PENDING -> ASSIGNED ->
// IN_PROGRESS -> RESOLVED -> CLOSED, with WITHDRAWN as a terminal
// citizen-initiated exit.
const (
	StatusNew        = "NEW"
	StatusPending    = "PENDING"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusClosed     = "CLOSED"
	StatusWithdrawn  = "WITHDRAWN"
)

// Request priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// ValidStatuses contains all valid request status values.
var ValidStatuses = []string{
	StatusNew, StatusPending, StatusAssigned, StatusInProgress,
	StatusResolved, StatusClosed, StatusWithdrawn,
}

// ValidPriorities contains all valid request priority values.
var ValidPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Request represents a citizen grievance or service request tracked
// through its status lifecycle.
type Request struct {
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"` // Immutable once generated, GRV-<year>-<rand4>

	Type       string     `json:"type"`
	SubType    string     `json:"sub_type,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	RequesterName    string   `json:"requester_name"`
	RequesterPhone   string   `json:"requester_phone"`
	RequesterAddress string   `json:"requester_address,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`

	// Constituency and district are distinct filter dimensions.
	Constituency string `json:"constituency,omitempty"`
	District     string `json:"district,omitempty"`

	Status   string `json:"status"`
	Priority string `json:"priority"`

	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	AssignedBy *uuid.UUID `json:"assigned_by,omitempty"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`

	EstimatedCost          float64    `json:"estimated_cost"`
	ExpectedResolutionDate *time.Time `json:"expected_resolution_date,omitempty"`
	ActualResolutionDate   *time.Time `json:"actual_resolution_date,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// Display fields resolved by joins, not stored on the request row.
	CategoryName string `json:"category_name,omitempty"`
	AssigneeName string `json:"assignee_name,omitempty"`
}

// referencePattern matches generated reference numbers.
var referencePattern = regexp.MustCompile(`^GRV-\d{4}-\d{4}$`)

// NewReference generates a human-readable reference number for the given
// creation time: GRV-<4-digit-year>-<4-digit-zero-padded-random>.
// Uniqueness is enforced by the store; callers retry on collision.
func NewReference(createdAt time.Time) string {
	return fmt.Sprintf("GRV-%04d-%04d", createdAt.Year(), rand.Intn(10000))
}

// IsValidReference reports whether s matches the reference number format.
func IsValidReference(s string) bool {
	return referencePattern.MatchString(s)
}

// IsValidStatus checks if the given status is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidPriority checks if the given priority is valid.
func IsValidPriority(priority string) bool {
	for _, p := range ValidPriorities {
		if p == priority {
			return true
		}
	}
	return false
}

// IsCritical reports whether the request counts toward the dashboard's
// critical KPI.
func (r *Request) IsCritical() bool {
	return r.Priority == PriorityUrgent || r.Priority == PriorityHigh
}

// IsTerminal reports whether the status ends the lifecycle.
func IsTerminal(status string) bool {
	return status == StatusResolved || status == StatusClosed || status == StatusWithdrawn
}

// statusTransitions defines the allowed lifecycle edges. Assignment and
// reopening are modeled explicitly instead of blind field overwrites:
// a RESOLVED or CLOSED request must be reopened before it can be
// assigned again.
var statusTransitions = map[string][]string{
	StatusNew:        {StatusPending, StatusAssigned, StatusWithdrawn},
	StatusPending:    {StatusAssigned, StatusWithdrawn},
	StatusAssigned:   {StatusAssigned, StatusInProgress, StatusResolved, StatusWithdrawn},
	StatusInProgress: {StatusAssigned, StatusResolved, StatusWithdrawn},
	StatusResolved:   {StatusClosed, StatusPending},
	StatusClosed:     {StatusPending},
	StatusWithdrawn:  {},
}

// CanTransition reports whether a request may move from one status to
// another. Re-assignment of an already ASSIGNED request is allowed (the
// ASSIGNED -> ASSIGNED edge): PAs routinely re-triage work in flight.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanAssign reports whether a request in the given status may be assigned.
func CanAssign(status string) bool {
	return CanTransition(status, StatusAssigned)
}

// CanReopen reports whether a request in the given status may be reopened.
func CanReopen(status string) bool {
	return CanTransition(status, StatusPending) && IsTerminal(status)
}
