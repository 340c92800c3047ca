package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Alejob60/meta-agent/internal/config"
	"github.com/Alejob60/meta-agent/internal/llm"
)

// Provider implements llm.Provider against the OpenAI-compatible HTTP API
type Provider struct {
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
	client         *http.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Provider{
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		baseURL:        baseURL,
		client:         &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gpt-4o-mini"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *Provider) ChatCompletion(ctx context.Context, req llm.ChatRequest, model string) (*llm.ChatResponse, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("openai provider is not configured (missing API key)")
	}

	if model == "" {
		model = p.DefaultModel()
	}

	messages := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	}

	start := time.Now()
	var parsed chatResponse
	if err := p.post(ctx, "/chat/completions", body, &parsed); err != nil {
		return nil, err
	}
	latency := time.Since(start).Milliseconds()

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty response from openai")
	}

	return &llm.ChatResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage: llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
		LatencyMs: latency,
	}, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *Provider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("openai provider is not configured (missing API key)")
	}

	model := p.embeddingModel
	if model == "" {
		model = "text-embedding-3-small"
	}

	var parsed embeddingResponse
	if err := p.post(ctx, "/embeddings", embeddingRequest{Model: model, Input: text}, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding from openai")
	}

	return parsed.Data[0].Embedding, nil
}

func (p *Provider) HealthCheck(ctx context.Context) llm.Health {
	if !p.IsConfigured() {
		return llm.Health{Status: "unhealthy", Message: "missing API key"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return llm.Health{Status: "unhealthy", Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return llm.Health{Status: "unhealthy", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.Health{Status: "unhealthy", Message: fmt.Sprintf("models endpoint returned %d", resp.StatusCode)}
	}

	return llm.Health{Status: "healthy"}
}

func (p *Provider) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &llm.APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("openai %s returned %d: %s", path, resp.StatusCode, truncate(string(raw), 200)),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
