package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TurnRole represents the author of a conversation turn
type TurnRole string

const (
	RoleUser  TurnRole = "user"
	RoleAgent TurnRole = "agent"
)

// TurnMetadata carries per-turn observability fields
type TurnMetadata struct {
	Channel        Channel `json:"channel,omitempty"`
	Model          string  `json:"model,omitempty"`
	PromptTokens   int     `json:"prompt_tokens,omitempty"`
	ResponseTokens int     `json:"response_tokens,omitempty"`
	DocsRetrieved  int     `json:"docs_retrieved,omitempty"`
	LatencyMs      int64   `json:"latency_ms,omitempty"`
	Degraded       bool    `json:"degraded,omitempty"`
}

// ConversationTurn is one message in a session's append-only turn log.
// TurnNumber is strictly increasing per session; a user turn and its agent
// reply share a correlation ID.
type ConversationTurn struct {
	ID            uuid.UUID    `json:"id"`
	SessionID     string       `json:"session_id"`
	TenantID      string       `json:"tenant_id"`
	CorrelationID string       `json:"correlation_id"`
	Role          TurnRole     `json:"role"`
	Text          string       `json:"text"`
	Actions       []Action     `json:"actions,omitempty"`
	Metadata      TurnMetadata `json:"metadata"`
	TurnNumber    int64        `json:"turn_number"`
	CreatedAt     time.Time    `json:"created_at"`
}

// TurnRepository defines the interface for the durable turn log
type TurnRepository interface {
	Create(ctx context.Context, turn *ConversationTurn) error
	ListBySession(ctx context.Context, tenantID, sessionID string, limit int) ([]ConversationTurn, error)
	CountBySession(ctx context.Context, tenantID, sessionID string) (int64, error)
	DeleteBySession(ctx context.Context, tenantID, sessionID string) error
}
