package api

import (
	"net/http"
	"time"

	"github.com/Alejob60/meta-agent/internal/actions"
	"github.com/Alejob60/meta-agent/internal/api/handler"
	custommw "github.com/Alejob60/meta-agent/internal/api/middleware"
	"github.com/Alejob60/meta-agent/internal/config"
	"github.com/Alejob60/meta-agent/internal/dispatch"
	"github.com/Alejob60/meta-agent/internal/llm"
	"github.com/Alejob60/meta-agent/internal/llm/gemini"
	"github.com/Alejob60/meta-agent/internal/llm/openai"
	"github.com/Alejob60/meta-agent/internal/metrics"
	mongorepo "github.com/Alejob60/meta-agent/internal/repository/mongo"
	"github.com/Alejob60/meta-agent/internal/repository/postgres"
	redisrepo "github.com/Alejob60/meta-agent/internal/repository/redis"
	"github.com/Alejob60/meta-agent/internal/retriever"
	"github.com/Alejob60/meta-agent/internal/security"
	"github.com/Alejob60/meta-agent/internal/service"
	"github.com/Alejob60/meta-agent/internal/session"
	"github.com/Alejob60/meta-agent/internal/speech"
	"github.com/Alejob60/meta-agent/internal/vectorstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	db *postgres.DB,
	redisClient *redis.Client,
	mongoClient *mongo.Client,
	vectors vectorstore.VectorStore,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommw.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security
	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	// Repositories
	sessionRepo := postgres.NewSessionRepository(db)
	turnRepo := postgres.NewTurnRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	feedbackRepo := mongorepo.NewFeedbackRepository(mongoClient, cfg.Mongo.Database)

	// Redis-backed infrastructure
	sessionCache := redisrepo.NewSessionCache(redisClient, cfg.Session.CacheTTL)
	rateLimiter := redisrepo.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, time.Minute)
	publisher := redisrepo.NewStreamPublisher(redisClient, cfg.Dispatch.StreamPrefix, cfg.Dispatch.MaxLen)

	// LLM providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	log.Info().Str("default", cfg.LLM.DefaultProvider).Msg("initializing LLM providers")

	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	} else {
		log.Warn().Msg("gemini API key is empty, skipping registration")
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI))
	}

	llmClient := llm.NewClient(llmRouter, cfg.LLM.MaxRetries, cfg.LLM.RetryBackoff, cfg.LLM.CallTimeout)

	// Pipeline components
	store := session.NewStore(sessionRepo, turnRepo, sessionCache, session.Config{
		RecentTurnsWindow: cfg.Session.RecentTurnsWindow,
		VerbatimTurns:     cfg.Session.VerbatimTurns,
	})
	knowledge := retriever.New(llmClient, vectors, cfg.Vector.TopK, cfg.Vector.Threshold)
	parser := actions.NewParser(actions.NewRegistry())
	dispatcher := dispatch.New(publisher, 5*time.Second)

	var transcriber speech.Transcriber
	if cfg.Speech.URL != "" {
		transcriber = speech.NewClient(cfg.Speech.URL, cfg.Speech.APIKey, cfg.Speech.Timeout)
	}

	collector := metrics.NewCollector()

	// Services
	processService := service.New(
		store,
		tenantRepo,
		knowledge,
		llmClient,
		parser,
		dispatcher,
		transcriber,
		feedbackRepo,
		collector,
		service.LLMParams{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			TopP:        cfg.LLM.TopP,
		},
		cfg.Session.VerbatimTurns,
	)
	authService := service.NewAuthService(tenantRepo, jwtManager)

	// Handlers
	processHandler := handler.NewProcessHandler(processService)
	sessionHandler := handler.NewSessionHandler(processService)
	feedbackHandler := handler.NewFeedbackHandler(processService)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler(processService, db, redisClient, vectors, cfg.Server.Version)

	authMiddleware := custommw.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := custommw.NewRateLimitMiddleware(rateLimiter)

	r.Route("/v2", func(r chi.Router) {
		// Public routes
		r.Post("/auth/token", authHandler.Token)

		r.Route("/agents/meta-agent", func(r chi.Router) {
			r.Get("/health", healthHandler.Health)
			r.Get("/ready", healthHandler.Ready)
			r.Get("/metrics", healthHandler.Metrics)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Use(rateLimitMiddleware.Limit)

				r.Post("/process", processHandler.Process)

				r.Route("/session/{sessionID}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)
					r.Delete("/", sessionHandler.Delete)
				})

				r.Post("/feedback", feedbackHandler.Submit)
				r.Get("/feedback", feedbackHandler.List)
			})
		})
	})

	return r
}
