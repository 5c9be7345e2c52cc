package models

import (
	"testing"
	"time"
)

func TestNewReference_Format(t *testing.T) {
	ref := NewReference(time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	if !IsValidReference(ref) {
		t.Errorf("generated reference %q does not match format", ref)
	}
	if ref[:9] != "GRV-2025-" {
		t.Errorf("expected GRV-2025- prefix, got %q", ref)
	}
}

func TestIsValidReference(t *testing.T) {
	valid := []string{"GRV-2024-0001", "GRV-2025-9999", "GRV-1999-0000"}
	for _, ref := range valid {
		if !IsValidReference(ref) {
			t.Errorf("expected %q to be valid", ref)
		}
	}

	invalid := []string{"", "GRV-2024-1", "GRV-24-0001", "grv-2024-0001", "GRV-2024-00012", "REQ-2024-0001"}
	for _, ref := range invalid {
		if IsValidReference(ref) {
			t.Errorf("expected %q to be invalid", ref)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusNew, StatusAssigned, true},
		{StatusNew, StatusPending, true},
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusAssigned, true}, // re-assignment
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusResolved, true},
		{StatusResolved, StatusClosed, true},
		{StatusResolved, StatusPending, true}, // reopen
		{StatusClosed, StatusPending, true},   // reopen
		{StatusResolved, StatusAssigned, false},
		{StatusClosed, StatusAssigned, false},
		{StatusWithdrawn, StatusAssigned, false},
		{StatusWithdrawn, StatusPending, false},
		{StatusNew, StatusResolved, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestCanAssign(t *testing.T) {
	assignable := []string{StatusNew, StatusPending, StatusAssigned, StatusInProgress}
	for _, s := range assignable {
		if !CanAssign(s) {
			t.Errorf("expected %s to be assignable", s)
		}
	}

	for _, s := range []string{StatusResolved, StatusClosed, StatusWithdrawn} {
		if CanAssign(s) {
			t.Errorf("expected %s to require reopen before assignment", s)
		}
	}
}

func TestCanReopen(t *testing.T) {
	for _, s := range []string{StatusResolved, StatusClosed} {
		if !CanReopen(s) {
			t.Errorf("expected %s to be reopenable", s)
		}
	}

	for _, s := range []string{StatusNew, StatusPending, StatusAssigned, StatusInProgress, StatusWithdrawn} {
		if CanReopen(s) {
			t.Errorf("expected %s not to be reopenable", s)
		}
	}
}

func TestIsCritical(t *testing.T) {
	for _, p := range []string{PriorityUrgent, PriorityHigh} {
		r := &Request{Priority: p}
		if !r.IsCritical() {
			t.Errorf("expected priority %s to be critical", p)
		}
	}

	for _, p := range []string{PriorityMedium, PriorityLow} {
		r := &Request{Priority: p}
		if r.IsCritical() {
			t.Errorf("expected priority %s not to be critical", p)
		}
	}
}

func TestCanTransitionFund(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{FundStatusRequested, FundStatusSanctioned, true},
		{FundStatusRequested, FundStatusRejected, true},
		{FundStatusSanctioned, FundStatusReleased, true},
		{FundStatusSanctioned, FundStatusRejected, true},
		{FundStatusReleased, FundStatusRejected, false},
		{FundStatusRejected, FundStatusSanctioned, false},
		{FundStatusRequested, FundStatusReleased, false},
	}

	for _, tt := range tests {
		if got := CanTransitionFund(tt.from, tt.to); got != tt.allowed {
			t.Errorf("CanTransitionFund(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}
