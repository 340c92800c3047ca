package service

import (
	"context"

	"github.com/Alejob60/meta-agent/internal/dispatch"
	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/llm"
	"github.com/Alejob60/meta-agent/internal/speech"
	"github.com/stretchr/testify/mock"
)

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetOrCreate(ctx context.Context, tenantID, sessionID string, channel domain.Channel, userID string) (*domain.SessionContext, error) {
	args := m.Called(ctx, tenantID, sessionID, channel, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionContext), args.Error(1)
}

func (m *MockSessionStore) AddTurn(ctx context.Context, sess *domain.SessionContext, turn *domain.ConversationTurn) error {
	args := m.Called(ctx, sess, turn)
	return args.Error(0)
}

func (m *MockSessionStore) UpdateShortContext(ctx context.Context, sess *domain.SessionContext, update domain.ShortContext) error {
	args := m.Called(ctx, sess, update)
	return args.Error(0)
}

func (m *MockSessionStore) Summary(ctx context.Context, tenantID, sessionID string) (*domain.SessionSummary, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionSummary), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, tenantID, sessionID string) error {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Error(0)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetPolicy(ctx context.Context, id string) (*domain.TenantPolicy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantPolicy), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, text, tenantID string) []domain.RetrievedDocument {
	args := m.Called(ctx, text, tenantID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.RetrievedDocument)
}

type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.ChatResponse), args.Error(1)
}

func (m *MockChatClient) HealthCheck(ctx context.Context) llm.Health {
	args := m.Called(ctx)
	return args.Get(0).(llm.Health)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, dc dispatch.Context, actions []domain.Action) []domain.Action {
	args := m.Called(ctx, dc, actions)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Action)
}

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, speechURL string) (*speech.Transcript, error) {
	args := m.Called(ctx, speechURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*speech.Transcript), args.Error(1)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

func (m *MockFeedbackRepository) ListBySession(ctx context.Context, tenantID, sessionID string, limit int) ([]domain.Feedback, error) {
	args := m.Called(ctx, tenantID, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Feedback), args.Error(1)
}
