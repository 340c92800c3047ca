package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/Alejob60/meta-agent/internal/domain"
)

// Executor handles one action type on the consumer side. Implementations
// talk to the downstream service (orders, marketing, support, front desk,
// notifications) and must be safe for concurrent use.
type Executor interface {
	Type() string
	Execute(ctx context.Context, envelope *domain.ActionEnvelope) error
}

// Registry maps action types to executors
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry creates an empty executor registry
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register adds an executor for its action type
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Type()] = e
}

// Get returns the executor for an action type
func (r *Registry) Get(actionType string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[actionType]
	if !ok {
		return nil, fmt.Errorf("no executor registered for action type %q", actionType)
	}
	return e, nil
}

// Types lists registered action types
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	return types
}
