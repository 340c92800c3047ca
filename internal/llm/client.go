package llm

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
)

// APIError is a provider failure carrying the upstream HTTP status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client wraps the provider router with retry, backoff, and per-call
// timeouts. Transient failures (timeouts, 429, 5xx) are retried with
// exponential backoff; validation and auth failures fail immediately.
type Client struct {
	router      *Router
	maxRetries  int
	backoff     time.Duration
	callTimeout time.Duration
}

// NewClient creates a new retrying LLM client
func NewClient(router *Router, maxRetries int, backoff, callTimeout time.Duration) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Client{
		router:      router,
		maxRetries:  maxRetries,
		backoff:     backoff,
		callTimeout: callTimeout,
	}
}

// ChatCompletion runs a chat call against the default provider with retries
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	provider, err := c.router.GetProvider("")
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if c.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		}

		resp, err := provider.ChatCompletion(callCtx, req, provider.DefaultModel())
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !IsRetriable(err) {
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		wait := c.backoff * time.Duration(1<<(attempt-1))
		log.Warn().
			Err(err).
			Str("provider", provider.Name()).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("retriable LLM error, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

// GenerateEmbedding returns an embedding vector for the text, with retries
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	provider, err := c.router.GetProvider("")
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if c.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		}

		vec, err := provider.GenerateEmbedding(callCtx, text)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return vec, nil
		}

		lastErr = err
		if !IsRetriable(err) {
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff * time.Duration(1<<(attempt-1))):
		}
	}

	return nil, lastErr
}

// HealthCheck probes the default provider
func (c *Client) HealthCheck(ctx context.Context) Health {
	provider, err := c.router.GetProvider("")
	if err != nil {
		return Health{Status: "unhealthy", Message: err.Error()}
	}
	return provider.HealthCheck(ctx)
}

// IsRetriable reports whether an error warrants another attempt.
// Timeouts and 429/5xx-class failures are retriable; 4xx validation and
// auth failures are not.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 429 || gErr.Code >= 500
	}

	return false
}
