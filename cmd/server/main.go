package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/postpulse/internal/app"
	"github.com/pscheid92/postpulse/internal/config"
	"github.com/pscheid92/postpulse/internal/database"
	"github.com/pscheid92/postpulse/internal/ingest"
	"github.com/pscheid92/postpulse/internal/logging"
	"github.com/pscheid92/postpulse/internal/redis"
	"github.com/pscheid92/postpulse/internal/sentiment"
	"github.com/pscheid92/postpulse/internal/server"
	"github.com/pscheid92/postpulse/internal/upstream"
	goredis "github.com/redis/go-redis/v9"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, scheduler *sentiment.Scheduler) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		scheduler.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	// Storage and collaborators
	postRepo := database.NewPostRepo(pool, clock)
	source := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamBearerToken, cfg.UpstreamTimeout)
	gate := ingest.NewGate(source, postRepo, clock)

	// Sentiment models and background enrichment
	lexicon := sentiment.NewLexicon()
	classifier := sentiment.NewOpenAIClassifier(sentiment.ClassifierConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	enricher := sentiment.NewEnricher(postRepo, lexicon, classifier, cfg.EnrichBatchSize)
	scheduler := sentiment.NewScheduler(enricher, redis.NewTriggerDebouncer(redisClient))
	scheduler.Start()

	appSvc := app.NewService(gate, postRepo, scheduler, cfg.CacheWindow)

	srv := server.NewServer(cfg, appSvc, pool, redisClient)
	done := runGracefulShutdown(srv, scheduler)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
