package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies requests. Categories form a one-level tree: a
// category's Children are exactly the categories whose ParentID points
// at it.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	LocalName string     `json:"local_name,omitempty"` // Localized display name
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Color     string     `json:"color,omitempty"` // Chart color hint
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Children []*Category `json:"children,omitempty"`
}
