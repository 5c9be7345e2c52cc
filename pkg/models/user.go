package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants for staff and citizen-facing users.
const (
	RoleAdmin        = "ADMIN"
	RoleMinister     = "MINISTER"
	RolePA           = "PA"
	RoleFieldOfficer = "FIELD_OFFICER"
	RoleOfficeStaff  = "OFFICE_STAFF"
	RoleVillageHead  = "VILLAGE_HEAD"
	RoleVolunteer    = "VOLUNTEER"
	RoleAuditor      = "AUDITOR"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{
	RoleAdmin, RoleMinister, RolePA, RoleFieldOfficer,
	RoleOfficeStaff, RoleVillageHead, RoleVolunteer, RoleAuditor,
}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a staff member or volunteer. Users are soft-deleted:
// DeletedAt is set instead of removing the row, so audit history keeps
// resolving.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}
