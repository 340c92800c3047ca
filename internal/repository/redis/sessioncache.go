package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// ErrCacheMiss is returned when a session is not in the cache
var ErrCacheMiss = errors.New("session cache miss")

// SessionCache keeps hot session contexts in redis so a conversation
// turn does not need to touch postgres on every message
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache with the given TTL
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

func sessionKey(tenantID, sessionID string) string {
	return sessionKeyPrefix + tenantID + ":" + sessionID
}

// cachedSession is the cache representation: the session context plus the
// recent turn window, so a cache hit is enough to build a prompt
type cachedSession struct {
	Session     domain.SessionContext     `json:"session"`
	RecentTurns []domain.ConversationTurn `json:"recentTurns"`
}

// Get returns the cached session and its recent turns
func (c *SessionCache) Get(ctx context.Context, tenantID, sessionID string) (*domain.SessionContext, []domain.ConversationTurn, error) {
	data, err := c.client.Get(ctx, sessionKey(tenantID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil, ErrCacheMiss
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cached session: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal cached session: %w", err)
	}

	return &cached.Session, cached.RecentTurns, nil
}

// Set writes the session and its recent turns, refreshing the TTL
func (c *SessionCache) Set(ctx context.Context, session *domain.SessionContext, recentTurns []domain.ConversationTurn) error {
	data, err := json.Marshal(cachedSession{
		Session:     *session,
		RecentTurns: recentTurns,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cached session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(session.TenantID, session.SessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}

	return nil
}

// Delete removes a session from the cache
func (c *SessionCache) Delete(ctx context.Context, tenantID, sessionID string) error {
	if err := c.client.Del(ctx, sessionKey(tenantID, sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached session: %w", err)
	}
	return nil
}
