package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Alejob60/meta-agent/internal/dispatch"
	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/llm"
	"github.com/Alejob60/meta-agent/internal/metrics"
	"github.com/Alejob60/meta-agent/internal/session"
	"github.com/Alejob60/meta-agent/internal/speech"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const fallbackText = "Lo siento, estoy teniendo problemas para responder en este momento. Por favor, intenta de nuevo en unos minutos."

// speechPlaceholder stands in for the user's words when transcription is
// unavailable, so a voice message still produces a reply.
const speechPlaceholder = "[mensaje de voz recibido, transcripción no disponible]"

// ChatClient is the retrying LLM client surface the pipeline needs
type ChatClient interface {
	ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	HealthCheck(ctx context.Context) llm.Health
}

// Retriever fetches tenant-scoped knowledge for a message
type Retriever interface {
	Retrieve(ctx context.Context, text, tenantID string) []domain.RetrievedDocument
}

// ActionParser extracts and strips action directives from model output
type ActionParser interface {
	ParseActions(responseText string) []domain.Action
	ExtractClean(responseText string) string
}

// SessionStore is the session-context surface of the pipeline
type SessionStore interface {
	GetOrCreate(ctx context.Context, tenantID, sessionID string, channel domain.Channel, userID string) (*domain.SessionContext, error)
	AddTurn(ctx context.Context, sess *domain.SessionContext, turn *domain.ConversationTurn) error
	UpdateShortContext(ctx context.Context, sess *domain.SessionContext, update domain.ShortContext) error
	Summary(ctx context.Context, tenantID, sessionID string) (*domain.SessionSummary, error)
	Delete(ctx context.Context, tenantID, sessionID string) error
}

// ActionDispatcher publishes validated actions downstream
type ActionDispatcher interface {
	Dispatch(ctx context.Context, dc dispatch.Context, actions []domain.Action) []domain.Action
}

// LLMParams are the fixed sampling parameters for every chat call
type LLMParams struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Service orchestrates one conversation turn: resolve input, load session
// context, retrieve knowledge, call the model, extract actions, persist
// turns, and dispatch. Internal failures degrade to a fallback reply with
// degraded metadata; the caller never sees an empty response.
type Service struct {
	store       SessionStore
	tenants     domain.TenantRepository
	retriever   Retriever
	chat        ChatClient
	parser      ActionParser
	dispatcher  ActionDispatcher
	transcriber speech.Transcriber
	feedback    domain.FeedbackRepository
	collector   *metrics.Collector
	validate    *validator.Validate
	params      LLMParams
	verbatim    int
}

// New creates the process service
func New(
	store SessionStore,
	tenants domain.TenantRepository,
	retriever Retriever,
	chat ChatClient,
	parser ActionParser,
	dispatcher ActionDispatcher,
	transcriber speech.Transcriber,
	feedback domain.FeedbackRepository,
	collector *metrics.Collector,
	params LLMParams,
	verbatimTurns int,
) *Service {
	if verbatimTurns <= 0 {
		verbatimTurns = 2
	}
	return &Service{
		store:       store,
		tenants:     tenants,
		retriever:   retriever,
		chat:        chat,
		parser:      parser,
		dispatcher:  dispatcher,
		transcriber: transcriber,
		feedback:    feedback,
		collector:   collector,
		validate:    validator.New(),
		params:      params,
		verbatim:    verbatimTurns,
	}
}

// ValidateRequest checks the request shape. A validation failure is a
// client error, not a degraded run.
func (s *Service) ValidateRequest(req *domain.ProcessRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	if req.Input.Type == domain.InputText && req.Input.Text == "" {
		return fmt.Errorf("input.text is required for text input")
	}
	return nil
}

// Process runs the full pipeline for one inbound message
func (s *Service) Process(ctx context.Context, req *domain.ProcessRequest) *domain.ProcessResponse {
	start := time.Now()

	logger := log.With().
		Str("correlation_id", req.CorrelationID).
		Str("tenant_id", req.TenantID).
		Str("session_id", req.SessionID).
		Str("channel", string(req.Channel)).
		Logger()

	text, err := s.resolveText(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve input text")
		return s.fallback(req, "input_resolution_failed", start)
	}

	sess, err := s.store.GetOrCreate(ctx, req.TenantID, req.SessionID, req.Channel, req.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load session context")
		return s.fallback(req, "session_unavailable", start)
	}

	policy := s.tenantPolicy(ctx, req.TenantID, logger)
	docs := s.retriever.Retrieve(ctx, text, req.TenantID)

	cut := len(sess.RecentTurns) - s.verbatim
	if cut < 0 {
		cut = 0
	}
	summary, _ := session.Compress(sess.RecentTurns[:cut], 0)

	chatResp, err := s.chat.ChatCompletion(ctx, llm.ChatRequest{
		Messages: llm.BuildMessages(llm.PromptInput{
			Policy:      policy,
			Summary:     summary,
			Short:       sess.ShortContext,
			Documents:   docs,
			RecentTurns: sess.RecentTurns[cut:],
			UserMessage: text,
		}),
		Temperature: s.params.Temperature,
		MaxTokens:   s.params.MaxTokens,
		TopP:        s.params.TopP,
	})
	if err != nil {
		logger.Error().Err(err).Msg("LLM call failed after retries")
		// Keep the user's message in the log so the session survives the outage
		s.recordTurn(ctx, sess, &domain.ConversationTurn{
			ID:            uuid.New(),
			CorrelationID: req.CorrelationID,
			Role:          domain.RoleUser,
			Text:          text,
			Metadata:      domain.TurnMetadata{Channel: req.Channel},
		}, logger)
		return s.fallback(req, "llm_unavailable", start)
	}

	parsed := s.parser.ParseActions(chatResp.Content)
	clean := s.parser.ExtractClean(chatResp.Content)

	degraded := false
	degradedReason := ""
	if clean == "" {
		clean = fallbackText
		degraded = true
		degradedReason = "empty_response"
	}

	userTurn := &domain.ConversationTurn{
		ID:            uuid.New(),
		CorrelationID: req.CorrelationID,
		Role:          domain.RoleUser,
		Text:          text,
		Metadata:      domain.TurnMetadata{Channel: req.Channel},
	}
	agentTurn := &domain.ConversationTurn{
		ID:            uuid.New(),
		CorrelationID: req.CorrelationID,
		Role:          domain.RoleAgent,
		Text:          clean,
		Actions:       parsed,
		Metadata: domain.TurnMetadata{
			Channel:        req.Channel,
			Model:          chatResp.Model,
			PromptTokens:   chatResp.Usage.PromptTokens,
			ResponseTokens: chatResp.Usage.CompletionTokens,
			DocsRetrieved:  len(docs),
			LatencyMs:      chatResp.LatencyMs,
			Degraded:       degraded,
		},
	}

	// Turn history is the source of truth. A failed append must not be
	// masked by a successful-looking reply, and nothing gets dispatched
	// for a turn that was never recorded.
	if !s.recordTurn(ctx, sess, userTurn, logger) || !s.recordTurn(ctx, sess, agentTurn, logger) {
		return s.fallback(req, "persistence_failure", start)
	}

	if update := s.contextUpdate(req, parsed); update != nil {
		if err := s.store.UpdateShortContext(ctx, sess, *update); err != nil {
			logger.Warn().Err(err).Msg("failed to update short context")
		}
	}

	dispatched := s.dispatcher.Dispatch(ctx, dispatch.Context{
		CorrelationID: req.CorrelationID,
		TenantID:      req.TenantID,
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		Channel:       req.Channel,
	}, parsed)

	totalMs := time.Since(start).Milliseconds()

	if s.collector != nil {
		s.collector.RecordRequest(string(req.Channel), totalMs, degraded, false)
		s.collector.RecordTokens(chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens)
		s.collector.RecordActions(len(parsed), 0, len(dispatched))
	}

	resp := &domain.ProcessResponse{
		CorrelationID:   req.CorrelationID,
		SessionID:       req.SessionID,
		ResponseText:    clean,
		Actions:         dispatched,
		RoutingDecision: routingDecision(dispatched),
		Metrics: domain.ProcessMetrics{
			PromptTokens:   chatResp.Usage.PromptTokens,
			ResponseTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:    chatResp.Usage.TotalTokens,
			DocsRetrieved:  len(docs),
			LLMLatencyMs:   chatResp.LatencyMs,
			TotalLatencyMs: totalMs,
			Model:          chatResp.Model,
		},
		Timestamp: time.Now().UTC(),
	}
	if degraded {
		resp.Metadata = map[string]any{
			"degraded_mode":   true,
			"fallback_reason": degradedReason,
		}
	}

	logger.Info().
		Int("actions", len(dispatched)).
		Int("docs", len(docs)).
		Int64("total_ms", totalMs).
		Bool("degraded", degraded).
		Msg("message processed")

	return resp
}

// resolveText normalizes the inbound payload to plain text. Transcription
// failures substitute a placeholder rather than aborting: a voice message
// must still produce a reply.
func (s *Service) resolveText(ctx context.Context, req *domain.ProcessRequest) (string, error) {
	switch req.Input.Type {
	case domain.InputSpeech:
		if s.transcriber == nil {
			log.Warn().Str("correlation_id", req.CorrelationID).Msg("no transcriber configured, using placeholder")
			return speechPlaceholder, nil
		}
		transcript, err := s.transcriber.Transcribe(ctx, req.Input.SpeechURL)
		if err != nil {
			log.Warn().Err(err).Str("correlation_id", req.CorrelationID).Msg("transcription failed, using placeholder")
			return speechPlaceholder, nil
		}
		return transcript.Text, nil
	case domain.InputEvent:
		if req.Input.Text != "" {
			return req.Input.Text, nil
		}
		if name, ok := req.Input.Metadata["event"].(string); ok && name != "" {
			return fmt.Sprintf("[event] %s", name), nil
		}
		return "", fmt.Errorf("event input carries no usable payload")
	default:
		return req.Input.Text, nil
	}
}

func (s *Service) tenantPolicy(ctx context.Context, tenantID string, logger zerolog.Logger) domain.TenantPolicy {
	policy, err := s.tenants.GetPolicy(ctx, tenantID)
	if err != nil {
		logger.Warn().Err(err).Msg("tenant policy unavailable, using defaults")
		return domain.TenantPolicy{}
	}
	return *policy
}

// recordTurn appends a turn, reporting success
func (s *Service) recordTurn(ctx context.Context, sess *domain.SessionContext, turn *domain.ConversationTurn, logger zerolog.Logger) bool {
	if err := s.store.AddTurn(ctx, sess, turn); err != nil {
		logger.Error().Err(err).Str("role", string(turn.Role)).Msg("failed to record turn")
		return false
	}
	return true
}

// contextUpdate derives the short-context delta for this turn from the
// actions emitted and any caller hints
func (s *Service) contextUpdate(req *domain.ProcessRequest, actions []domain.Action) *domain.ShortContext {
	update := domain.ShortContext{Facts: map[string]any{}}
	changed := false

	for _, a := range actions {
		if a.Type == "escalate_human" {
			update.ConversationState = domain.StateEscalated
			changed = true
			break
		}
	}
	if update.ConversationState == "" && len(actions) > 0 {
		update.ConversationState = domain.StateReady
		changed = true
	}

	for k, v := range req.ContextHints {
		update.Facts[k] = v
		changed = true
	}

	if !changed {
		return nil
	}
	return &update
}

// fallback builds the degraded reply that replaces an internal failure
func (s *Service) fallback(req *domain.ProcessRequest, reason string, start time.Time) *domain.ProcessResponse {
	if s.collector != nil {
		s.collector.RecordRequest(string(req.Channel), time.Since(start).Milliseconds(), true, true)
	}
	return &domain.ProcessResponse{
		CorrelationID: req.CorrelationID,
		SessionID:     req.SessionID,
		ResponseText:  fallbackText,
		Metrics: domain.ProcessMetrics{
			TotalLatencyMs: time.Since(start).Milliseconds(),
			Additional: map[string]any{
				"error":    reason,
				"fallback": true,
			},
		},
		Timestamp: time.Now().UTC(),
		Metadata: map[string]any{
			"degraded_mode":   true,
			"fallback_reason": reason,
		},
	}
}

func routingDecision(actions []domain.Action) string {
	if len(actions) == 0 {
		return "direct_response"
	}
	targets := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		targets[a.Target] = struct{}{}
	}
	if len(targets) == 1 {
		for t := range targets {
			return t
		}
	}
	return "multi_target"
}

// SessionSummary returns the compressed client view of a session
func (s *Service) SessionSummary(ctx context.Context, tenantID, sessionID string) (*domain.SessionSummary, error) {
	return s.store.Summary(ctx, tenantID, sessionID)
}

// DeleteSession removes a session and its turn log
func (s *Service) DeleteSession(ctx context.Context, tenantID, sessionID string) error {
	return s.store.Delete(ctx, tenantID, sessionID)
}

// SubmitFeedback stores a user rating
func (s *Service) SubmitFeedback(ctx context.Context, fb *domain.Feedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	return s.feedback.Create(ctx, fb)
}

// ListFeedback returns feedback for a session
func (s *Service) ListFeedback(ctx context.Context, tenantID, sessionID string, limit int) ([]domain.Feedback, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.feedback.ListBySession(ctx, tenantID, sessionID, limit)
}

// MetricsSnapshot returns current service counters
func (s *Service) MetricsSnapshot() metrics.Snapshot {
	if s.collector == nil {
		return metrics.Snapshot{}
	}
	return s.collector.Snapshot()
}

// LLMHealth probes the default provider
func (s *Service) LLMHealth(ctx context.Context) llm.Health {
	return s.chat.HealthCheck(ctx)
}
