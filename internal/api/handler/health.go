package handler

import (
	"net/http"
	"time"

	"github.com/Alejob60/meta-agent/internal/api/response"
	"github.com/Alejob60/meta-agent/internal/repository/postgres"
	"github.com/Alejob60/meta-agent/internal/service"
	"github.com/Alejob60/meta-agent/internal/vectorstore"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports service and dependency health
type HealthHandler struct {
	svc         *service.Service
	db          *postgres.DB
	redisClient *redis.Client
	vectors     vectorstore.VectorStore
	version     string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc *service.Service, db *postgres.DB, redisClient *redis.Client, vectors vectorstore.VectorStore, version string) *HealthHandler {
	return &HealthHandler{
		svc:         svc,
		db:          db,
		redisClient: redisClient,
		vectors:     vectors,
		version:     version,
	}
}

// Health handles GET /v2/agents/meta-agent/health.
// Degraded dependencies are reported, not fatal: the endpoint stays 200
// as long as the process can serve requests at all.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deps := map[string]string{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		deps["postgres"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		deps["postgres"] = "healthy"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			deps["redis"] = "unhealthy: " + err.Error()
		} else {
			deps["redis"] = "healthy"
		}
	}

	if h.vectors != nil {
		if err := h.vectors.HealthCheck(ctx); err != nil {
			deps["vector_store"] = "unhealthy: " + err.Error()
		} else {
			deps["vector_store"] = "healthy"
		}
	}

	llmHealth := h.svc.LLMHealth(ctx)
	deps["llm"] = llmHealth.Status
	if llmHealth.Status != "healthy" {
		healthy = false
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	response.OK(w, map[string]any{
		"status":       status,
		"version":      h.version,
		"dependencies": deps,
		"timestamp":    time.Now().UTC(),
	})
}

// Ready handles GET /v2/agents/meta-agent/ready: hard dependency check
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		response.ServiceUnavailable(w, "database not ready")
		return
	}
	response.OK(w, map[string]string{"status": "ready"})
}

// Metrics handles GET /v2/agents/meta-agent/metrics
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.svc.MetricsSnapshot())
}
