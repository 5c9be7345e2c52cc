package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/services"
)

// ParseID extracts and validates the {id} path parameter.
// Returns the parsed UUID and true on success, or uuid.Nil and false on
// error (after writing an error response).
func ParseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid ID format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// QueryInt returns the named query parameter as an int, or def when the
// parameter is absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// QueryUUID returns the named query parameter as a UUID pointer, or nil
// when the parameter is absent. Malformed values return an error.
func QueryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// RequestAuditMeta builds the audit actor context from request headers.
// The acting user is taken from X-User-ID when present; identity
// verification happens upstream of this service.
func RequestAuditMeta(r *http.Request) services.AuditMeta {
	meta := services.AuditMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if v := r.Header.Get("X-User-ID"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			meta.UserID = &id
		}
	}
	return meta
}
