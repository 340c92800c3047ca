package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []domain.ActionEnvelope
	targets   []string
	failOn    string
}

func (p *fakePublisher) Publish(_ context.Context, target string, envelope *domain.ActionEnvelope) (string, error) {
	if p.failOn != "" && envelope.Action.Type == p.failOn {
		return "", errors.New("stream unavailable")
	}
	p.published = append(p.published, *envelope)
	p.targets = append(p.targets, target)
	return "1-0", nil
}

func TestDispatch_MarksActionsSent(t *testing.T) {
	pub := &fakePublisher{}
	d := New(pub, time.Second)

	dc := Context{
		CorrelationID: "corr-1",
		TenantID:      "tenant-a",
		SessionID:     "sess-1",
		Channel:       domain.ChannelWeb,
	}

	actions := []domain.Action{
		{Type: "create_order", Params: map[string]any{"product_id": "botas-001"}, Status: domain.ActionPending, Target: "orders-service"},
		{Type: "send_notification", Params: map[string]any{"recipient": "u", "message": "m"}, Status: domain.ActionPending, Target: "notifications-service"},
	}

	out := d.Dispatch(context.Background(), dc, actions)

	require.Len(t, out, 2)
	assert.Equal(t, domain.ActionSent, out[0].Status)
	assert.Equal(t, domain.ActionSent, out[1].Status)
	require.Len(t, pub.published, 2)
	assert.Equal(t, []string{"orders-service", "notifications-service"}, pub.targets)
	assert.Equal(t, "corr-1", pub.published[0].CorrelationID)
	assert.Equal(t, "tenant-a", pub.published[0].TenantID)
}

func TestDispatch_PublishFailureDoesNotBlockOthers(t *testing.T) {
	pub := &fakePublisher{failOn: "create_order"}
	d := New(pub, time.Second)

	actions := []domain.Action{
		{Type: "create_order", Status: domain.ActionPending, Target: "orders-service"},
		{Type: "escalate_human", Params: map[string]any{"reason": "angry"}, Status: domain.ActionPending, Target: "support-service"},
	}

	out := d.Dispatch(context.Background(), Context{CorrelationID: "corr-1"}, actions)

	require.Len(t, out, 2)
	assert.Equal(t, domain.ActionFailed, out[0].Status)
	assert.Equal(t, domain.ActionSent, out[1].Status)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "escalate_human", pub.published[0].Action.Type)
}

func TestDispatch_EmptyActions(t *testing.T) {
	pub := &fakePublisher{}
	d := New(pub, time.Second)

	out := d.Dispatch(context.Background(), Context{}, nil)
	assert.Empty(t, out)
	assert.Empty(t, pub.published)
}
