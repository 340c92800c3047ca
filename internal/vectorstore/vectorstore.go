package vectorstore

import "context"

// VectorStore is a technology-agnostic interface for vector similarity
// search over tenant knowledge.
type VectorStore interface {
	// Search performs similarity search with tenant filtering.
	Search(ctx context.Context, vector []float32, filter SearchFilter, limit int) ([]SearchResult, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// SearchFilter defines filtering options for vector search.
type SearchFilter struct {
	// TenantID restricts results to a single tenant. Required: cross-tenant
	// results are a correctness violation, not a tuning parameter.
	TenantID string

	// Metadata filters results by additional payload key-value pairs.
	Metadata map[string]any

	// MinScore drops results below this similarity threshold (0.0-1.0).
	MinScore float32
}

// SearchResult is a single similarity hit.
type SearchResult struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
}
