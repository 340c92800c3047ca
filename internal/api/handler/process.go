package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Alejob60/meta-agent/internal/api/middleware"
	"github.com/Alejob60/meta-agent/internal/api/response"
	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/service"
	"github.com/go-playground/validator/v10"
)

// ProcessHandler handles the message-processing endpoint
type ProcessHandler struct {
	svc *service.Service
}

// NewProcessHandler creates a new process handler
func NewProcessHandler(svc *service.Service) *ProcessHandler {
	return &ProcessHandler{svc: svc}
}

// Process handles POST /v2/agents/meta-agent/process
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req domain.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.ValidateRequest(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			errors := make(map[string]string)
			for _, e := range validationErrors {
				errors[e.Field()] = "validation failed on " + e.Tag()
			}
			response.BadRequest(w, errors)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	// The body tenant must be the token tenant
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	if req.TenantID != tenantID {
		response.Forbidden(w, "tenant mismatch")
		return
	}

	// Process never fails outward: internal errors come back as a
	// degraded response with fallback text
	resp := h.svc.Process(r.Context(), &req)
	response.OK(w, resp)
}
