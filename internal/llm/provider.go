package llm

import "context"

// Role constants for chat messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in the ordered prompt sent to the model
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest contains chat-completion parameters. Sampling parameters are
// fixed by configuration, not per request.
type ChatRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Usage reports token consumption for one call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse contains the model output and call metrics
type ChatResponse struct {
	Content   string
	Model     string
	Usage     Usage
	LatencyMs int64
}

// Health is the result of a provider health probe
type Health struct {
	Status  string `json:"status"` // healthy | unhealthy
	Message string `json:"message,omitempty"`
}

// Provider defines the interface for LLM backends
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default chat model
	DefaultModel() string

	// IsConfigured checks if the provider has valid credentials
	IsConfigured() bool

	// ChatCompletion runs one chat-completion call
	ChatCompletion(ctx context.Context, req ChatRequest, model string) (*ChatResponse, error)

	// GenerateEmbedding returns a fixed-dimension vector for the text.
	// Deterministic for identical input and model.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// HealthCheck probes provider availability
	HealthCheck(ctx context.Context) Health
}
