package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/Alejob60/meta-agent/internal/config"
	"github.com/Alejob60/meta-agent/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Provider struct {
	apiKey         string
	model          string
	embeddingModel string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) ChatCompletion(ctx context.Context, req llm.ChatRequest, model string) (*llm.ChatResponse, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	temperature := req.Temperature
	topP := req.TopP
	generativeModel.Temperature = &temperature
	generativeModel.TopP = &topP
	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		generativeModel.MaxOutputTokens = &maxTokens
	}

	system, history, last := splitMessages(req.Messages)
	if system != "" {
		generativeModel.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	chat := generativeModel.StartChat()
	chat.History = history

	start := time.Now()
	resp, err := chat.SendMessage(ctx, genai.Text(last))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}

	usage := llm.Usage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.ChatResponse{
		Content:   output,
		Model:     model,
		Usage:     usage,
		LatencyMs: latency,
	}, nil
}

func (p *Provider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := p.embeddingModel
	if model == "" {
		model = "text-embedding-004"
	}

	em := client.EmbeddingModel(model)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding error: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding from gemini")
	}

	return resp.Embedding.Values, nil
}

func (p *Provider) HealthCheck(ctx context.Context) llm.Health {
	if !p.IsConfigured() {
		return llm.Health{Status: "unhealthy", Message: "missing API key"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return llm.Health{Status: "unhealthy", Message: err.Error()}
	}
	defer client.Close()

	model := client.GenerativeModel(p.DefaultModel())
	if _, err := model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return llm.Health{Status: "unhealthy", Message: err.Error()}
	}

	return llm.Health{Status: "healthy"}
}

// splitMessages separates system instructions, chat history, and the final
// user message into the shapes the genai SDK expects
func splitMessages(messages []llm.Message) (system string, history []*genai.Content, last string) {
	var conversational []llm.Message
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		conversational = append(conversational, m)
	}

	if len(conversational) == 0 {
		return system, nil, ""
	}

	last = conversational[len(conversational)-1].Content
	for _, m := range conversational[:len(conversational)-1] {
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	return system, history, last
}
