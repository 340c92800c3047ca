package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/repository/postgres"
	redisrepo "github.com/Alejob60/meta-agent/internal/repository/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.SessionContext
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.SessionContext)}
}

func sessKey(tenantID, sessionID string) string {
	return tenantID + ":" + sessionID
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.SessionContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[sessKey(s.TenantID, s.SessionID)] = &cp
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, tenantID, sessionID string) (*domain.SessionContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessKey(tenantID, sessionID)]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) UpdateShortContext(_ context.Context, tenantID, sessionID string, sc domain.ShortContext, lastTurn int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessKey(tenantID, sessionID)]
	if !ok {
		return postgres.ErrNotFound
	}
	s.ShortContext = sc
	s.LastTurn = lastTurn
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, tenantID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessKey(tenantID, sessionID))
	return nil
}

func (r *fakeSessionRepo) CountByTenant(_ context.Context, tenantID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

type fakeTurnRepo struct {
	mu    sync.Mutex
	turns map[string][]domain.ConversationTurn
	fail  bool
}

func newFakeTurnRepo() *fakeTurnRepo {
	return &fakeTurnRepo{turns: make(map[string][]domain.ConversationTurn)}
}

func (r *fakeTurnRepo) Create(_ context.Context, t *domain.ConversationTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("turn write failed")
	}
	key := sessKey(t.TenantID, t.SessionID)
	for _, existing := range r.turns[key] {
		if existing.TurnNumber == t.TurnNumber {
			return fmt.Errorf("duplicate turn number %d", t.TurnNumber)
		}
	}
	r.turns[key] = append(r.turns[key], *t)
	return nil
}

func (r *fakeTurnRepo) ListBySession(_ context.Context, tenantID, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.turns[sessKey(tenantID, sessionID)]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.ConversationTurn, len(all))
	copy(out, all)
	return out, nil
}

func (r *fakeTurnRepo) CountBySession(_ context.Context, tenantID, sessionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.turns[sessKey(tenantID, sessionID)])), nil
}

func (r *fakeTurnRepo) DeleteBySession(_ context.Context, tenantID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.turns, sessKey(tenantID, sessionID))
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*domain.SessionContext
	failing bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.SessionContext)}
}

func (c *fakeCache) Get(_ context.Context, tenantID, sessionID string) (*domain.SessionContext, []domain.ConversationTurn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return nil, nil, errors.New("redis down")
	}
	s, ok := c.entries[sessKey(tenantID, sessionID)]
	if !ok {
		return nil, nil, redisrepo.ErrCacheMiss
	}
	cp := *s
	return &cp, cp.RecentTurns, nil
}

func (c *fakeCache) Set(_ context.Context, s *domain.SessionContext, turns []domain.ConversationTurn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("redis down")
	}
	cp := *s
	cp.RecentTurns = turns
	c.entries[sessKey(s.TenantID, s.SessionID)] = &cp
	return nil
}

func (c *fakeCache) Delete(_ context.Context, tenantID, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessKey(tenantID, sessionID))
	return nil
}

func newTestStore() (*Store, *fakeSessionRepo, *fakeTurnRepo, *fakeCache) {
	sessions := newFakeSessionRepo()
	turns := newFakeTurnRepo()
	cache := newFakeCache()
	store := NewStore(sessions, turns, cache, Config{RecentTurnsWindow: 4, VerbatimTurns: 2})
	return store, sessions, turns, cache
}

func TestGetOrCreate_NewSession(t *testing.T) {
	store, _, _, _ := newTestStore()

	sess, err := store.GetOrCreate(context.Background(), "tenant-a", "sess-1", domain.ChannelWeb, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", sess.SessionID)
	assert.Equal(t, "tenant-a", sess.TenantID)
	assert.Equal(t, domain.StateGreeting, sess.ShortContext.ConversationState)
	assert.Equal(t, int64(0), sess.LastTurn)
	assert.Empty(t, sess.RecentTurns)
}

func TestGetOrCreate_CacheFailureFallsBackToDatabase(t *testing.T) {
	store, sessions, _, cache := newTestStore()

	require.NoError(t, sessions.Create(context.Background(), &domain.SessionContext{
		SessionID: "sess-1",
		TenantID:  "tenant-a",
		Channel:   domain.ChannelWeb,
		ShortContext: domain.ShortContext{
			ConversationState: domain.StateReady,
		},
	}))
	cache.failing = true

	sess, err := store.GetOrCreate(context.Background(), "tenant-a", "sess-1", domain.ChannelWeb, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateReady, sess.ShortContext.ConversationState)
}

func TestAddTurn_AssignsIncreasingNumbers(t *testing.T) {
	store, _, turns, _ := newTestStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "tenant-a", "sess-1", domain.ChannelWeb, "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		turn := &domain.ConversationTurn{
			ID:   uuid.New(),
			Role: domain.RoleUser,
			Text: fmt.Sprintf("message %d", i),
		}
		require.NoError(t, store.AddTurn(ctx, sess, turn))
		assert.Equal(t, int64(i+1), turn.TurnNumber)
	}

	stored, err := turns.ListBySession(ctx, "tenant-a", "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, turn := range stored {
		assert.Equal(t, int64(i+1), turn.TurnNumber)
	}
}

func TestAddTurn_BoundsRecentWindow(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "tenant-a", "sess-1", domain.ChannelWeb, "")
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		turn := &domain.ConversationTurn{ID: uuid.New(), Role: domain.RoleUser, Text: fmt.Sprintf("m%d", i)}
		require.NoError(t, store.AddTurn(ctx, sess, turn))
	}

	require.Len(t, sess.RecentTurns, 4)
	assert.Equal(t, "m3", sess.RecentTurns[0].Text)
	assert.Equal(t, "m6", sess.RecentTurns[3].Text)
	assert.Equal(t, int64(7), sess.LastTurn)
}

func TestAddTurn_ConcurrentWritesStaySequential(t *testing.T) {
	store, _, turns, _ := newTestStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "tenant-a", "sess-1", domain.ChannelWeb, "")
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			turn := &domain.ConversationTurn{ID: uuid.New(), Role: domain.RoleUser, Text: fmt.Sprintf("m%d", i)}
			assert.NoError(t, store.AddTurn(ctx, sess, turn))
		}(i)
	}
	wg.Wait()

	count, err := turns.CountBySession(ctx, "tenant-a", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
	assert.Equal(t, int64(n), sess.LastTurn)
}

func TestAddTurn_DurableWriteFailureIsHardError(t *testing.T) {
	store, _, turns, _ := newTestStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "tenant-a", "sess-1", domain.ChannelWeb, "")
	require.NoError(t, err)

	turns.fail = true
	err = store.AddTurn(ctx, sess, &domain.ConversationTurn{ID: uuid.New(), Role: domain.RoleUser, Text: "hello"})
	require.Error(t, err)
	assert.Equal(t, int64(0), sess.LastTurn)
}

func TestMergeShortContext(t *testing.T) {
	base := domain.ShortContext{
		ConversationState: domain.StateCollectingInfo,
		Facts: map[string]any{
			"name":    "Ana",
			"product": "botas",
		},
	}

	t.Run("keywise merge keeps absent keys", func(t *testing.T) {
		merged := MergeShortContext(base, domain.ShortContext{
			Facts: map[string]any{"quantity": 2},
		})
		assert.Equal(t, domain.StateCollectingInfo, merged.ConversationState)
		assert.Equal(t, "Ana", merged.Facts["name"])
		assert.Equal(t, "botas", merged.Facts["product"])
		assert.Equal(t, 2, merged.Facts["quantity"])
	})

	t.Run("explicit overwrite replaces", func(t *testing.T) {
		merged := MergeShortContext(base, domain.ShortContext{
			ConversationState: domain.StateReady,
			Facts:             map[string]any{"product": "zapatos"},
		})
		assert.Equal(t, domain.StateReady, merged.ConversationState)
		assert.Equal(t, "zapatos", merged.Facts["product"])
		assert.Equal(t, "Ana", merged.Facts["name"])
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		merged := MergeShortContext(base, domain.ShortContext{})
		assert.Equal(t, base.ConversationState, merged.ConversationState)
		assert.Equal(t, base.Facts["name"], merged.Facts["name"])
	})
}

func TestUpdateShortContext_Persists(t *testing.T) {
	store, sessions, _, _ := newTestStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "tenant-a", "sess-1", domain.ChannelWeb, "")
	require.NoError(t, err)

	require.NoError(t, store.UpdateShortContext(ctx, sess, domain.ShortContext{
		ConversationState: domain.StateReady,
		Facts:             map[string]any{"product": "botas"},
	}))

	stored, err := sessions.Get(ctx, "tenant-a", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateReady, stored.ShortContext.ConversationState)
	assert.Equal(t, "botas", stored.ShortContext.Facts["product"])
}

func TestCompress(t *testing.T) {
	turns := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "hola"},
		{Role: domain.RoleAgent, Text: "hola, en que puedo ayudarte"},
		{Role: domain.RoleUser, Text: "   "},
		{Role: domain.RoleUser, Text: "quiero botas"},
		{Role: domain.RoleAgent, Text: "tenemos botas de cuero"},
	}

	summary, digests := Compress(turns, 2)

	require.Len(t, digests, 2)
	assert.Equal(t, "quiero botas", digests[0].Text)
	assert.Equal(t, "tenemos botas de cuero", digests[1].Text)
	assert.Contains(t, summary, "user: hola")
	assert.Contains(t, summary, "agent: hola, en que puedo ayudarte")
	assert.NotContains(t, summary, "quiero botas")
}

func TestCompress_FewerTurnsThanVerbatim(t *testing.T) {
	turns := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "hola"},
	}

	summary, digests := Compress(turns, 2)
	assert.Empty(t, summary)
	require.Len(t, digests, 1)
}

func TestDelete_RemovesEverything(t *testing.T) {
	store, sessions, turns, cache := newTestStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "tenant-a", "sess-1", domain.ChannelWeb, "")
	require.NoError(t, err)
	require.NoError(t, store.AddTurn(ctx, sess, &domain.ConversationTurn{ID: uuid.New(), Role: domain.RoleUser, Text: "hola"}))

	require.NoError(t, store.Delete(ctx, "tenant-a", "sess-1"))

	_, err = sessions.Get(ctx, "tenant-a", "sess-1")
	assert.ErrorIs(t, err, postgres.ErrNotFound)

	count, err := turns.CountBySession(ctx, "tenant-a", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, _, err = cache.Get(ctx, "tenant-a", "sess-1")
	assert.ErrorIs(t, err, redisrepo.ErrCacheMiss)
}
