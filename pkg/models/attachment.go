package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment stores file metadata for a document uploaded against a
// request. The file body lives on disk under the configured upload dir.
type Attachment struct {
	ID         uuid.UUID  `json:"id"`
	RequestID  uuid.UUID  `json:"request_id"`
	FileName   string     `json:"file_name"`
	FilePath   string     `json:"file_path"`
	MimeType   string     `json:"mime_type,omitempty"`
	SizeBytes  int64      `json:"size_bytes"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
