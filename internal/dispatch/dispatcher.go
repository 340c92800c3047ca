package dispatch

import (
	"context"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/rs/zerolog/log"
)

// Publisher publishes an envelope to the stream for a target service
type Publisher interface {
	Publish(ctx context.Context, target string, envelope *domain.ActionEnvelope) (string, error)
}

// Dispatcher routes validated actions to their target service streams.
// Dispatch is fire-and-forget: a publish failure marks the action failed
// and is logged, but never blocks or fails the conversation turn.
type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
}

// New creates a dispatcher
func New(publisher Publisher, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{publisher: publisher, timeout: timeout}
}

// Context identifies the conversation turn the actions came from
type Context struct {
	CorrelationID string
	TenantID      string
	SessionID     string
	UserID        string
	Channel       domain.Channel
}

// Dispatch publishes each action and returns them with updated status:
// sent on success, failed on publish error
func (d *Dispatcher) Dispatch(ctx context.Context, dc Context, actions []domain.Action) []domain.Action {
	if len(actions) == 0 {
		return actions
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out := make([]domain.Action, len(actions))
	for i, action := range actions {
		envelope := &domain.ActionEnvelope{
			Action:        action,
			CorrelationID: dc.CorrelationID,
			TenantID:      dc.TenantID,
			SessionID:     dc.SessionID,
			UserID:        dc.UserID,
			Channel:       dc.Channel,
			Timestamp:     time.Now().UTC(),
		}

		id, err := d.publisher.Publish(ctx, action.Target, envelope)
		if err != nil {
			log.Error().
				Err(err).
				Str("correlation_id", dc.CorrelationID).
				Str("tenant_id", dc.TenantID).
				Str("action_type", action.Type).
				Str("target", action.Target).
				Msg("failed to dispatch action")
			action.Status = domain.ActionFailed
		} else {
			log.Info().
				Str("correlation_id", dc.CorrelationID).
				Str("action_type", action.Type).
				Str("target", action.Target).
				Str("stream_id", id).
				Msg("action dispatched")
			action.Status = domain.ActionSent
		}

		out[i] = action
	}

	return out
}
