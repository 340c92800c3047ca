package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (p *scriptedProvider) Name() string         { return "scripted" }
func (p *scriptedProvider) DefaultModel() string { return "scripted-1" }
func (p *scriptedProvider) IsConfigured() bool   { return true }

func (p *scriptedProvider) ChatCompletion(_ context.Context, _ ChatRequest, _ string) (*ChatResponse, error) {
	defer func() { p.calls++ }()
	if p.calls < len(p.errs) && p.errs[p.calls] != nil {
		return nil, p.errs[p.calls]
	}
	return &ChatResponse{Content: "ok", Model: "scripted-1"}, nil
}

func (p *scriptedProvider) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	defer func() { p.calls++ }()
	if p.calls < len(p.errs) && p.errs[p.calls] != nil {
		return nil, p.errs[p.calls]
	}
	return []float32{0.1, 0.2}, nil
}

func (p *scriptedProvider) HealthCheck(context.Context) Health {
	return Health{Status: "healthy"}
}

func newTestClient(p Provider) *Client {
	router := NewRouter("scripted")
	router.RegisterProvider(p)
	return NewClient(router, 3, time.Millisecond, 0)
}

func TestChatCompletion_RetriesTransientFailures(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		&APIError{StatusCode: 503, Message: "overloaded"},
		&APIError{StatusCode: 429, Message: "rate limited"},
		nil,
	}}
	client := newTestClient(p)

	resp, err := client.ChatCompletion(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, p.calls)
}

func TestChatCompletion_DoesNotRetryClientErrors(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		&APIError{StatusCode: 400, Message: "bad request"},
	}}
	client := newTestClient(p)

	_, err := client.ChatCompletion(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestChatCompletion_ExhaustedRetriesReturnLastError(t *testing.T) {
	boom := &APIError{StatusCode: 500, Message: "boom"}
	p := &scriptedProvider{errs: []error{boom, boom, boom}}
	client := newTestClient(p)

	_, err := client.ChatCompletion(context.Background(), ChatRequest{})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, 3, p.calls)
}

func TestChatCompletion_CancelledContextStopsRetrying(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		&APIError{StatusCode: 500, Message: "boom"},
		&APIError{StatusCode: 500, Message: "boom"},
	}}
	router := NewRouter("scripted")
	router.RegisterProvider(p)
	client := NewClient(router, 3, 50*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ChatCompletion(ctx, ChatRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateEmbedding_Retries(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		&APIError{StatusCode: 500, Message: "boom"},
		nil,
	}}
	client := newTestClient(p)

	vec, err := client.GenerateEmbedding(context.Background(), "hola")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, 2, p.calls)
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"api 429", &APIError{StatusCode: 429}, true},
		{"api 500", &APIError{StatusCode: 500}, true},
		{"api 503", &APIError{StatusCode: 503}, true},
		{"api 400", &APIError{StatusCode: 400}, false},
		{"api 401", &APIError{StatusCode: 401}, false},
		{"googleapi 500", &googleapi.Error{Code: 500}, true},
		{"googleapi 429", &googleapi.Error{Code: 429}, true},
		{"googleapi 404", &googleapi.Error{Code: 404}, false},
		{"plain error", errors.New("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetriable(tt.err))
		})
	}
}
