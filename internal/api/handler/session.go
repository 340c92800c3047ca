package handler

import (
	"errors"
	"net/http"

	"github.com/Alejob60/meta-agent/internal/api/middleware"
	"github.com/Alejob60/meta-agent/internal/api/response"
	"github.com/Alejob60/meta-agent/internal/repository/postgres"
	"github.com/Alejob60/meta-agent/internal/service"
	"github.com/go-chi/chi/v5"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	svc *service.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(svc *service.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Get handles GET /v2/agents/meta-agent/session/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	summary, err := h.svc.SessionSummary(r.Context(), tenantID, sessionID)
	if errors.Is(err, postgres.ErrNotFound) {
		response.NotFound(w, "session not found")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	response.OK(w, summary)
}

// Delete handles DELETE /v2/agents/meta-agent/session/{sessionID}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	if err := h.svc.DeleteSession(r.Context(), tenantID, sessionID); err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	response.NoContent(w)
}
