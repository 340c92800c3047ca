package actions

import (
	"encoding/json"
	"fmt"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Param structs define the strict shape for each registered action type.
// One struct per type; validated with validator tags.

type createOrderParams struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Notes     string  `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type schedulePostParams struct {
	Content   string `json:"content" validate:"required"`
	Channel   string `json:"channel" validate:"required,oneof=facebook instagram tiktok linkedin"`
	PublishAt string `json:"publishAt" validate:"required"`
}

type escalateHumanParams struct {
	Reason   string `json:"reason" validate:"required"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
}

type bookAppointmentParams struct {
	Service string `json:"service" validate:"required"`
	Slot    string `json:"slot" validate:"required"`
	Name    string `json:"name,omitempty"`
}

type sendNotificationParams struct {
	Recipient string `json:"recipient" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

// schemaEntry pairs an action type's validated param struct with its
// default downstream target
type schemaEntry struct {
	target   string
	newBlank func() any
}

// Registry resolves action types to their validation schema and default
// target. Unknown types fall through to a minimal generic schema rather
// than being dropped.
type Registry struct {
	validate *validator.Validate
	schemas  map[string]schemaEntry
}

// NewRegistry creates a registry with the built-in action types
func NewRegistry() *Registry {
	return &Registry{
		validate: validator.New(),
		schemas: map[string]schemaEntry{
			"create_order": {
				target:   "orders-service",
				newBlank: func() any { return &createOrderParams{} },
			},
			"schedule_post": {
				target:   "marketing-service",
				newBlank: func() any { return &schedulePostParams{} },
			},
			"escalate_human": {
				target:   "support-service",
				newBlank: func() any { return &escalateHumanParams{} },
			},
			"book_appointment": {
				target:   "front-desk-service",
				newBlank: func() any { return &bookAppointmentParams{} },
			},
			"send_notification": {
				target:   "notifications-service",
				newBlank: func() any { return &sendNotificationParams{} },
			},
		},
	}
}

// DefaultTarget returns the downstream service for an action type.
// Unregistered types route to the generic actions service.
func (r *Registry) DefaultTarget(actionType string) string {
	if entry, ok := r.schemas[actionType]; ok {
		return entry.target
	}
	return "actions-service"
}

// Validate checks an action's params against the schema for its type.
// Registered types get strict struct validation; unknown types only need a
// non-empty type and non-empty params.
func (r *Registry) Validate(action domain.Action) domain.ActionValidation {
	if action.Type == "" {
		return domain.ActionValidation{Valid: false, Errors: []string{"action type is required"}}
	}

	entry, known := r.schemas[action.Type]
	if !known {
		if len(action.Params) == 0 {
			return domain.ActionValidation{Valid: false, Errors: []string{"params must not be empty"}}
		}
		return domain.ActionValidation{Valid: true}
	}

	params := entry.newBlank()
	raw, err := json.Marshal(action.Params)
	if err != nil {
		return domain.ActionValidation{Valid: false, Errors: []string{fmt.Sprintf("params not serializable: %v", err)}}
	}
	if err := json.Unmarshal(raw, params); err != nil {
		return domain.ActionValidation{Valid: false, Errors: []string{fmt.Sprintf("params do not match %s schema: %v", action.Type, err)}}
	}

	if err := r.validate.Struct(params); err != nil {
		var errs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				errs = append(errs, fmt.Sprintf("%s: failed %s validation", ve.Field(), ve.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
		return domain.ActionValidation{Valid: false, Errors: errs}
	}

	return domain.ActionValidation{Valid: true}
}
