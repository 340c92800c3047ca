package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
)

// WebhookExecutor forwards an action envelope to a downstream service
// over HTTP. One instance per action type, pointed at that service's
// ingest endpoint.
type WebhookExecutor struct {
	actionType string
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewWebhookExecutor creates an executor posting envelopes to url
func NewWebhookExecutor(actionType, url, apiKey string) *WebhookExecutor {
	return &WebhookExecutor{
		actionType: actionType,
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (e *WebhookExecutor) Type() string {
	return e.actionType
}

func (e *WebhookExecutor) Execute(ctx context.Context, envelope *domain.ActionEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", envelope.CorrelationID)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver action: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("downstream returned status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
