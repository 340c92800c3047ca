package domain

import "time"

// Channel identifies the inbound messaging surface
type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelVoice     Channel = "voice"
	ChannelInstagram Channel = "instagram"
	ChannelTelegram  Channel = "telegram"
)

// InputType distinguishes how the user message arrived
type InputType string

const (
	InputText   InputType = "text"
	InputSpeech InputType = "speech"
	InputEvent  InputType = "event"
)

// ProcessInput is the normalized inbound payload
type ProcessInput struct {
	Type      InputType      `json:"type" validate:"required,oneof=text speech event"`
	Text      string         `json:"text,omitempty" validate:"required_if=Type text,max=8000"`
	SpeechURL string         `json:"speech_url,omitempty" validate:"required_if=Type speech,omitempty,url"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ProcessRequest is the body of POST /v2/agents/meta-agent/process
type ProcessRequest struct {
	TenantID      string         `json:"tenant_id" validate:"required,max=128"`
	SessionID     string         `json:"session_id" validate:"required,max=128"`
	CorrelationID string         `json:"correlation_id" validate:"required,max=128"`
	UserID        string         `json:"user_id,omitempty" validate:"omitempty,max=128"`
	Channel       Channel        `json:"channel" validate:"required,oneof=web whatsapp voice instagram telegram"`
	Input         ProcessInput   `json:"input" validate:"required"`
	ContextHints  map[string]any `json:"context_hints,omitempty"`
}

// ProcessMetrics summarizes one pipeline run
type ProcessMetrics struct {
	PromptTokens   int            `json:"prompt_tokens"`
	ResponseTokens int            `json:"response_tokens"`
	TotalTokens    int            `json:"total_tokens"`
	DocsRetrieved  int            `json:"docs_retrieved"`
	LLMLatencyMs   int64          `json:"llm_latency_ms"`
	TotalLatencyMs int64          `json:"total_latency_ms"`
	Model          string         `json:"model,omitempty"`
	Additional     map[string]any `json:"additional,omitempty"`
}

// ProcessResponse is the client-facing result of one pipeline run.
// Callers always receive a non-empty ResponseText; a degraded run is
// signaled via Metadata["degraded_mode"], never an empty reply.
type ProcessResponse struct {
	CorrelationID   string         `json:"correlation_id"`
	SessionID       string         `json:"session_id"`
	ResponseText    string         `json:"response_text"`
	Actions         []Action       `json:"actions,omitempty"`
	RoutingDecision string         `json:"routing_decision,omitempty"`
	Metrics         ProcessMetrics `json:"metrics"`
	Timestamp       time.Time      `json:"timestamp"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// RetrievedDocument is a per-request vector search hit. Never persisted.
type RetrievedDocument struct {
	Text     string         `json:"text"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
