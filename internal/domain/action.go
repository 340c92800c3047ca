package domain

import "time"

// ActionStatus tracks an action through its dispatch lifecycle.
// Terminal states are set by downstream consumers.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionSent       ActionStatus = "sent"
	ActionProcessing ActionStatus = "processing"
	ActionCompleted  ActionStatus = "completed"
	ActionFailed     ActionStatus = "failed"
)

// Action is an intent to perform a side effect outside the conversation,
// extracted from the LLM response and validated before dispatch.
type Action struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
	Status ActionStatus   `json:"status"`
	Target string         `json:"target,omitempty"`
}

// ActionEnvelope is the wire shape published to the dispatch stream
type ActionEnvelope struct {
	Action        Action    `json:"action"`
	CorrelationID string    `json:"correlation_id"`
	TenantID      string    `json:"tenant_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id,omitempty"`
	Channel       Channel   `json:"channel"`
	Timestamp     time.Time `json:"timestamp"`
}

// ActionValidation is the result of checking an action against the schema
// registered for its type
type ActionValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}
