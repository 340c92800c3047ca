package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TurnRepository implements domain.TurnRepository over the append-only
// conversation_turns table
type TurnRepository struct {
	pool *pgxpool.Pool
}

// NewTurnRepository creates a new turn repository
func NewTurnRepository(db *DB) *TurnRepository {
	return &TurnRepository{pool: db.Pool}
}

// Create appends a turn. Turns are immutable once written; the unique
// (tenant_id, session_id, turn_number) index rejects duplicate numbering.
func (r *TurnRepository) Create(ctx context.Context, turn *domain.ConversationTurn) error {
	query := `
		INSERT INTO conversation_turns
			(id, session_id, tenant_id, correlation_id, role, text, actions, metadata, turn_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var actionsJSON []byte
	if len(turn.Actions) > 0 {
		var err error
		actionsJSON, err = json.Marshal(turn.Actions)
		if err != nil {
			return fmt.Errorf("failed to marshal actions: %w", err)
		}
	}

	metadataJSON, err := json.Marshal(turn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		turn.ID,
		turn.SessionID,
		turn.TenantID,
		turn.CorrelationID,
		turn.Role,
		turn.Text,
		actionsJSON,
		metadataJSON,
		turn.TurnNumber,
		turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}

	return nil
}

// ListBySession returns the latest turns in chronological order
// (oldest first)
func (r *TurnRepository) ListBySession(ctx context.Context, tenantID, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	query := `
		SELECT id, session_id, tenant_id, correlation_id, role, text, actions, metadata, turn_number, created_at
		FROM conversation_turns
		WHERE tenant_id = $1 AND session_id = $2
		ORDER BY turn_number DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, tenantID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var roleStr string
		var actionsJSON, metadataJSON []byte

		if err := rows.Scan(
			&t.ID,
			&t.SessionID,
			&t.TenantID,
			&t.CorrelationID,
			&roleStr,
			&t.Text,
			&actionsJSON,
			&metadataJSON,
			&t.TurnNumber,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = domain.TurnRole(roleStr)

		if len(actionsJSON) > 0 {
			if err := json.Unmarshal(actionsJSON, &t.Actions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
			}
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		turns = append(turns, t)
	}

	// Reverse to chronological order: we ordered DESC to get the latest N
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

func (r *TurnRepository) CountBySession(ctx context.Context, tenantID, sessionID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversation_turns WHERE tenant_id = $1 AND session_id = $2`,
		tenantID, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return count, nil
}

func (r *TurnRepository) DeleteBySession(ctx context.Context, tenantID, sessionID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM conversation_turns WHERE tenant_id = $1 AND session_id = $2`,
		tenantID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	return nil
}
