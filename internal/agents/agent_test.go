package agents

import (
	"context"
	"testing"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopExecutor struct {
	typ    string
	called int
}

func (e *noopExecutor) Type() string { return e.typ }

func (e *noopExecutor) Execute(context.Context, *domain.ActionEnvelope) error {
	e.called++
	return nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	orders := &noopExecutor{typ: "create_order"}
	r.Register(orders)

	got, err := r.Get("create_order")
	require.NoError(t, err)
	require.NoError(t, got.Execute(context.Background(), &domain.ActionEnvelope{}))
	assert.Equal(t, 1, orders.called)

	_, err = r.Get("unknown_action")
	assert.Error(t, err)

	assert.ElementsMatch(t, []string{"create_order"}, r.Types())
}
