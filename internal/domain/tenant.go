package domain

import (
	"context"
	"time"
)

// TenantPolicy shapes the system persona for a tenant's conversations.
// ProhibitedTopics is advisory in the prompt; enforcement of prohibited
// output is a product-policy concern outside this core.
type TenantPolicy struct {
	BusinessName     string   `json:"business_name"`
	BusinessProfile  string   `json:"business_profile,omitempty"`
	Tone             string   `json:"tone,omitempty"`
	Language         string   `json:"language,omitempty"`
	ProhibitedTopics []string `json:"prohibited_topics,omitempty"`
}

// Tenant is a registered consumer of the meta-agent
type Tenant struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Policy     TenantPolicy `json:"policy"`
	APIKeyHash string       `json:"-"`
	Active     bool         `json:"active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// TenantRepository defines the interface for tenant storage
type TenantRepository interface {
	Get(ctx context.Context, id string) (*Tenant, error)
	GetPolicy(ctx context.Context, id string) (*TenantPolicy, error)
}
