package models

import (
	"time"

	"github.com/google/uuid"
)

// Fund request statuses. REQUESTED is the only non-terminal state.
const (
	FundStatusRequested  = "REQUESTED"
	FundStatusSanctioned = "SANCTIONED"
	FundStatusReleased   = "RELEASED"
	FundStatusRejected   = "REJECTED"
)

// ValidFundStatuses contains all valid fund request status values.
var ValidFundStatuses = []string{
	FundStatusRequested, FundStatusSanctioned, FundStatusReleased, FundStatusRejected,
}

// FundRequest is a request for money against a grievance, moving
// REQUESTED -> SANCTIONED -> RELEASED, or REQUESTED -> REJECTED.
type FundRequest struct {
	ID         uuid.UUID  `json:"id"`
	RequestID  uuid.UUID  `json:"request_id"`
	Amount     float64    `json:"amount"`
	Purpose    string     `json:"purpose"`
	Status     string     `json:"status"`
	ApprovedBy *uuid.UUID `json:"approved_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// fundTransitions defines the allowed fund approval edges.
var fundTransitions = map[string][]string{
	FundStatusRequested:  {FundStatusSanctioned, FundStatusRejected},
	FundStatusSanctioned: {FundStatusReleased, FundStatusRejected},
	FundStatusReleased:   {},
	FundStatusRejected:   {},
}

// CanTransitionFund reports whether a fund request may move between statuses.
func CanTransitionFund(from, to string) bool {
	for _, next := range fundTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
