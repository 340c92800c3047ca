package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Feedback is a user rating on a session or a specific turn. Stored as-is;
// consumed by external fine-tuning pipelines.
type Feedback struct {
	ID         uuid.UUID  `json:"id" bson:"_id"`
	TenantID   string     `json:"tenant_id" bson:"tenant_id"`
	SessionID  string     `json:"session_id" bson:"session_id"`
	TurnID     *uuid.UUID `json:"turn_id,omitempty" bson:"turn_id,omitempty"`
	Rating     int        `json:"rating" bson:"rating"`
	Feedback   string     `json:"feedback,omitempty" bson:"feedback,omitempty"`
	Categories []string   `json:"categories,omitempty" bson:"categories,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// FeedbackRepository defines the interface for feedback storage
type FeedbackRepository interface {
	Create(ctx context.Context, fb *Feedback) error
	ListBySession(ctx context.Context, tenantID, sessionID string, limit int) ([]Feedback, error)
}
