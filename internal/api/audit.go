package api

import (
	"net/http"
	"strconv"

	"github.com/opsdeck/opsdeck-core/internal/audit"
)

// recordAudit writes an audit event on a best-effort basis. A failed write
// is logged but never fails the request that triggered it; nil repository
// means the trail is disabled.
func (s *Server) recordAudit(r *http.Request, action, username string, details map[string]any) {
	if s.audit == nil {
		return
	}

	event := &audit.Event{
		Action:   action,
		Username: username,
		Actor:    snapshotFrom(r.Context()).Username,
		Source:   "api",
		Details:  details,
	}
	if err := s.audit.Record(r.Context(), event); err != nil {
		s.logger.Error("failed to record audit event", "action", action, "error", err)
	}
}

// handleListAudit returns the audit trail, most recent first. Supports
// action, username, limit, and offset query parameters.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		Username: q.Get("username"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit events", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
