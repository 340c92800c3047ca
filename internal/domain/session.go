package domain

import (
	"context"
	"time"
)

// ConversationState tracks where a session is in its lifecycle
type ConversationState string

const (
	StateGreeting       ConversationState = "greeting"
	StateCollectingInfo ConversationState = "collecting_info"
	StateReady          ConversationState = "ready"
	StateEscalated      ConversationState = "escalated"
)

// ShortContext is the compact per-session summary carried into every prompt.
// Facts merge key-wise over time; a confirmed fact is only replaced by an
// explicit overwrite, never dropped.
type ShortContext struct {
	ConversationState ConversationState `json:"conversation_state"`
	Facts             map[string]any    `json:"facts,omitempty"`
}

// SessionContext holds the per-(tenant, session) conversation state.
// RecentTurns is a bounded window for the fast path; the full turn log
// lives in durable storage only.
type SessionContext struct {
	SessionID    string             `json:"session_id"`
	TenantID     string             `json:"tenant_id"`
	Channel      Channel            `json:"channel"`
	UserID       string             `json:"user_id,omitempty"`
	ShortContext ShortContext       `json:"short_context"`
	RecentTurns  []ConversationTurn `json:"recent_turns"`
	LastTurn     int64              `json:"last_turn"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// SessionRepository defines the interface for durable session storage
type SessionRepository interface {
	Create(ctx context.Context, session *SessionContext) error
	Get(ctx context.Context, tenantID, sessionID string) (*SessionContext, error)
	UpdateShortContext(ctx context.Context, tenantID, sessionID string, sc ShortContext, lastTurn int64) error
	Delete(ctx context.Context, tenantID, sessionID string) error
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}

// SessionSummary is the client-facing compressed view of a session
type SessionSummary struct {
	SessionID    string       `json:"session_id"`
	TenantID     string       `json:"tenant_id"`
	Channel      Channel      `json:"channel"`
	ShortContext ShortContext `json:"short_context"`
	TurnCount    int64        `json:"turn_count"`
	Summary      string       `json:"summary,omitempty"`
	RecentTurns  []TurnDigest `json:"recent_turns,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TurnDigest is a trimmed turn used inside summaries and prompts
type TurnDigest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
