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

// TenantRepository implements domain.TenantRepository
type TenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{pool: db.Pool}
}

func (r *TenantRepository) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `
		SELECT id, name, policy, api_key_hash, active, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var t domain.Tenant
	var policyJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&policyJSON,
		&t.APIKeyHash,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	if len(policyJSON) > 0 {
		if err := json.Unmarshal(policyJSON, &t.Policy); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tenant policy: %w", err)
		}
	}

	return &t, nil
}

func (r *TenantRepository) GetPolicy(ctx context.Context, id string) (*domain.TenantPolicy, error) {
	tenant, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tenant.Policy, nil
}
