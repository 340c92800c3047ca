package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Transcript is the result of a speech-to-text call
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Duration   float64 `json:"duration"`
}

// Transcriber converts recorded speech into text
type Transcriber interface {
	Transcribe(ctx context.Context, speechURL string) (*Transcript, error)
}

// Client calls an external speech-to-text service over HTTP
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new speech client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// IsConfigured reports whether a backend URL is set
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// Transcribe sends the audio URL to the speech backend
func (c *Client) Transcribe(ctx context.Context, speechURL string) (*Transcript, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("speech service is not configured")
	}

	payload, err := json.Marshal(map[string]string{"url": speechURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech service returned %d", resp.StatusCode)
	}

	var transcript Transcript
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}

	return &transcript, nil
}
