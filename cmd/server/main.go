package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alejob60/meta-agent/internal/api"
	"github.com/Alejob60/meta-agent/internal/config"
	"github.com/Alejob60/meta-agent/internal/logging"
	mongorepo "github.com/Alejob60/meta-agent/internal/repository/mongo"
	"github.com/Alejob60/meta-agent/internal/repository/postgres"
	redisrepo "github.com/Alejob60/meta-agent/internal/repository/redis"
	"github.com/Alejob60/meta-agent/internal/vectorstore"
	"github.com/Alejob60/meta-agent/internal/vectorstore/qdrant"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(cfg.Logging)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("version", cfg.Server.Version).
		Msg("starting meta-agent server")

	ctx := context.Background()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	mongoClient, err := mongorepo.NewClient(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer mongoClient.Disconnect(ctx)

	// The vector store is optional: without it retrieval degrades to
	// empty context
	var vectors vectorstore.VectorStore
	if cfg.Vector.URL != "" {
		vectors, err = qdrant.New(qdrant.Config{
			URL:            cfg.Vector.URL,
			APIKey:         cfg.Vector.APIKey,
			CollectionName: cfg.Vector.Collection,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to qdrant, retrieval disabled")
			vectors = nil
		} else {
			defer vectors.Close()
		}
	}

	router := api.NewRouter(cfg, db, redisClient, mongoClient, vectors)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
