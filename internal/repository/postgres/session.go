package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.SessionContext) error {
	query := `
		INSERT INTO sessions (session_id, tenant_id, channel, user_id, short_context, last_turn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	scJSON, err := json.Marshal(session.ShortContext)
	if err != nil {
		return fmt.Errorf("failed to marshal short context: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		session.SessionID,
		session.TenantID,
		session.Channel,
		session.UserID,
		scJSON,
		session.LastTurn,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *SessionRepository) Get(ctx context.Context, tenantID, sessionID string) (*domain.SessionContext, error) {
	query := `
		SELECT session_id, tenant_id, channel, user_id, short_context, last_turn, created_at, updated_at
		FROM sessions
		WHERE tenant_id = $1 AND session_id = $2
	`

	var s domain.SessionContext
	var scJSON []byte
	err := r.pool.QueryRow(ctx, query, tenantID, sessionID).Scan(
		&s.SessionID,
		&s.TenantID,
		&s.Channel,
		&s.UserID,
		&scJSON,
		&s.LastTurn,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(scJSON) > 0 {
		if err := json.Unmarshal(scJSON, &s.ShortContext); err != nil {
			return nil, fmt.Errorf("failed to unmarshal short context: %w", err)
		}
	}

	return &s, nil
}

func (r *SessionRepository) UpdateShortContext(ctx context.Context, tenantID, sessionID string, sc domain.ShortContext, lastTurn int64) error {
	query := `
		UPDATE sessions
		SET short_context = $1, last_turn = $2, updated_at = now()
		WHERE tenant_id = $3 AND session_id = $4
	`

	scJSON, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to marshal short context: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, scJSON, lastTurn, tenantID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, tenantID, sessionID string) error {
	query := `DELETE FROM sessions WHERE tenant_id = $1 AND session_id = $2`
	_, err := r.pool.Exec(ctx, query, tenantID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
