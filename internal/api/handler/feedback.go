package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Alejob60/meta-agent/internal/api/middleware"
	"github.com/Alejob60/meta-agent/internal/api/response"
	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/service"
	"github.com/google/uuid"
)

// FeedbackHandler handles feedback endpoints
type FeedbackHandler struct {
	svc *service.Service
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(svc *service.Service) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type feedbackInput struct {
	SessionID  string   `json:"session_id" validate:"required,max=128"`
	TurnID     string   `json:"turn_id,omitempty"`
	Rating     int      `json:"rating" validate:"required,min=1,max=5"`
	Feedback   string   `json:"feedback,omitempty" validate:"max=4000"`
	Categories []string `json:"categories,omitempty"`
}

// Submit handles POST /v2/agents/meta-agent/feedback
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input feedbackInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	fb := &domain.Feedback{
		TenantID:   tenantID,
		SessionID:  input.SessionID,
		Rating:     input.Rating,
		Feedback:   input.Feedback,
		Categories: input.Categories,
	}
	if input.TurnID != "" {
		turnID, err := uuid.Parse(input.TurnID)
		if err != nil {
			response.BadRequest(w, "invalid turn ID")
			return
		}
		fb.TurnID = &turnID
	}

	if err := h.svc.SubmitFeedback(r.Context(), fb); err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to store feedback")
		return
	}

	response.Created(w, map[string]any{"id": fb.ID})
}

// List handles GET /v2/agents/meta-agent/feedback?session_id=...
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		response.BadRequest(w, "missing session_id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.svc.ListFeedback(r.Context(), tenantID, sessionID, limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}

	response.OK(w, map[string]any{"items": items, "count": len(items)})
}
