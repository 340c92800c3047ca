package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/repository/postgres"
	redisrepo "github.com/Alejob60/meta-agent/internal/repository/redis"
	"github.com/rs/zerolog/log"
)

const lockStripes = 64

// Cache is the hot-path session cache. Implemented by the redis session
// cache; a failure here degrades to the database, never the request.
type Cache interface {
	Get(ctx context.Context, tenantID, sessionID string) (*domain.SessionContext, []domain.ConversationTurn, error)
	Set(ctx context.Context, session *domain.SessionContext, recentTurns []domain.ConversationTurn) error
	Delete(ctx context.Context, tenantID, sessionID string) error
}

// Store manages session contexts across the cache and durable storage.
// Writes to the same session are serialized through striped locks so turn
// numbers stay strictly increasing.
type Store struct {
	sessions domain.SessionRepository
	turns    domain.TurnRepository
	cache    Cache

	window   int
	verbatim int

	locks [lockStripes]sync.Mutex
}

// Config controls the recent-turn window kept on the fast path and how
// many trailing turns stay verbatim when a session is summarized
type Config struct {
	RecentTurnsWindow int
	VerbatimTurns     int
}

// NewStore creates a session store
func NewStore(sessions domain.SessionRepository, turns domain.TurnRepository, cache Cache, cfg Config) *Store {
	if cfg.RecentTurnsWindow <= 0 {
		cfg.RecentTurnsWindow = 10
	}
	if cfg.VerbatimTurns <= 0 {
		cfg.VerbatimTurns = 2
	}
	return &Store{
		sessions: sessions,
		turns:    turns,
		cache:    cache,
		window:   cfg.RecentTurnsWindow,
		verbatim: cfg.VerbatimTurns,
	}
}

func (s *Store) lock(tenantID, sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(tenantID))
	h.Write([]byte{0})
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}

// GetOrCreate loads a session, preferring the cache, and creates a fresh
// one in the greeting state when none exists
func (s *Store) GetOrCreate(ctx context.Context, tenantID, sessionID string, channel domain.Channel, userID string) (*domain.SessionContext, error) {
	if s.cache != nil {
		sess, turns, err := s.cache.Get(ctx, tenantID, sessionID)
		if err == nil {
			sess.RecentTurns = turns
			return sess, nil
		}
		if !errors.Is(err, redisrepo.ErrCacheMiss) {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("session cache read failed, falling back to database")
		}
	}

	sess, err := s.sessions.Get(ctx, tenantID, sessionID)
	if errors.Is(err, postgres.ErrNotFound) {
		now := time.Now().UTC()
		sess = &domain.SessionContext{
			SessionID: sessionID,
			TenantID:  tenantID,
			Channel:   channel,
			UserID:    userID,
			ShortContext: domain.ShortContext{
				ConversationState: domain.StateGreeting,
				Facts:             map[string]any{},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.sessions.Create(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		s.writeCache(ctx, sess)
		return sess, nil
	}
	if err != nil {
		return nil, err
	}

	turns, err := s.turns.ListBySession(ctx, tenantID, sessionID, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent turns: %w", err)
	}
	sess.RecentTurns = turns

	s.writeCache(ctx, sess)
	return sess, nil
}

// AddTurn appends a turn to the session's log, assigning the next turn
// number under the session lock. The durable write must succeed; the cache
// refresh is best-effort.
func (s *Store) AddTurn(ctx context.Context, sess *domain.SessionContext, turn *domain.ConversationTurn) error {
	mu := s.lock(sess.TenantID, sess.SessionID)
	mu.Lock()
	defer mu.Unlock()

	turn.SessionID = sess.SessionID
	turn.TenantID = sess.TenantID
	turn.TurnNumber = sess.LastTurn + 1
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	if err := s.turns.Create(ctx, turn); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}

	sess.LastTurn = turn.TurnNumber
	sess.UpdatedAt = turn.CreatedAt
	sess.RecentTurns = append(sess.RecentTurns, *turn)
	if len(sess.RecentTurns) > s.window {
		sess.RecentTurns = sess.RecentTurns[len(sess.RecentTurns)-s.window:]
	}

	if err := s.sessions.UpdateShortContext(ctx, sess.TenantID, sess.SessionID, sess.ShortContext, sess.LastTurn); err != nil {
		return fmt.Errorf("failed to persist session after turn: %w", err)
	}

	s.writeCache(ctx, sess)
	return nil
}

// UpdateShortContext merges the incoming context into the session's and
// persists it. Facts merge key-wise: a key absent from the update keeps its
// existing value, a present key overwrites.
func (s *Store) UpdateShortContext(ctx context.Context, sess *domain.SessionContext, update domain.ShortContext) error {
	mu := s.lock(sess.TenantID, sess.SessionID)
	mu.Lock()
	defer mu.Unlock()

	sess.ShortContext = MergeShortContext(sess.ShortContext, update)
	sess.UpdatedAt = time.Now().UTC()

	if err := s.sessions.UpdateShortContext(ctx, sess.TenantID, sess.SessionID, sess.ShortContext, sess.LastTurn); err != nil {
		return fmt.Errorf("failed to persist short context: %w", err)
	}

	s.writeCache(ctx, sess)
	return nil
}

// MergeShortContext merges update into base without dropping confirmed facts
func MergeShortContext(base, update domain.ShortContext) domain.ShortContext {
	merged := domain.ShortContext{
		ConversationState: base.ConversationState,
		Facts:             map[string]any{},
	}
	for k, v := range base.Facts {
		merged.Facts[k] = v
	}
	if update.ConversationState != "" {
		merged.ConversationState = update.ConversationState
	}
	for k, v := range update.Facts {
		merged.Facts[k] = v
	}
	return merged
}

// Summary builds the client-facing view of a session: the short context,
// the trailing turns verbatim, and older recent turns folded into a
// compact summary line
func (s *Store) Summary(ctx context.Context, tenantID, sessionID string) (*domain.SessionSummary, error) {
	sess, err := s.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	count, err := s.turns.CountBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count turns: %w", err)
	}

	turns, err := s.turns.ListBySession(ctx, tenantID, sessionID, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent turns: %w", err)
	}

	summary, digests := Compress(turns, s.verbatim)

	return &domain.SessionSummary{
		SessionID:    sess.SessionID,
		TenantID:     sess.TenantID,
		Channel:      sess.Channel,
		ShortContext: sess.ShortContext,
		TurnCount:    count,
		Summary:      summary,
		RecentTurns:  digests,
		UpdatedAt:    sess.UpdatedAt,
	}, nil
}

// Compress folds all but the last verbatim turns into a single summary
// line and returns the trailing turns as digests. Empty-text turns are
// skipped.
func Compress(turns []domain.ConversationTurn, verbatim int) (string, []domain.TurnDigest) {
	var nonEmpty []domain.ConversationTurn
	for _, t := range turns {
		if strings.TrimSpace(t.Text) != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}

	cut := len(nonEmpty) - verbatim
	if cut < 0 {
		cut = 0
	}

	var parts []string
	for _, t := range nonEmpty[:cut] {
		parts = append(parts, fmt.Sprintf("%s: %s", t.Role, truncate(t.Text, 120)))
	}

	digests := make([]domain.TurnDigest, 0, len(nonEmpty)-cut)
	for _, t := range nonEmpty[cut:] {
		digests = append(digests, domain.TurnDigest{Role: string(t.Role), Text: t.Text})
	}

	return strings.Join(parts, " | "), digests
}

// Delete removes a session, its turn log, and its cache entry
func (s *Store) Delete(ctx context.Context, tenantID, sessionID string) error {
	mu := s.lock(tenantID, sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.turns.DeleteBySession(ctx, tenantID, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, tenantID, sessionID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, tenantID, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to evict session from cache")
		}
	}
	return nil
}

func (s *Store) writeCache(ctx context.Context, sess *domain.SessionContext) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, sess, sess.RecentTurns); err != nil {
		log.Warn().Err(err).Str("session_id", sess.SessionID).Msg("session cache write failed")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
