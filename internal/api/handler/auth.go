package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Alejob60/meta-agent/internal/api/response"
	"github.com/Alejob60/meta-agent/internal/service"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AuthHandler handles token issuance
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token handles POST /v2/auth/token: exchanges a tenant API key for a JWT
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TenantID string `json:"tenant_id" validate:"required,max=128"`
		APIKey   string `json:"api_key" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.authService.ExchangeAPIKey(r.Context(), input.TenantID, input.APIKey)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Unauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	response.OK(w, result)
}
