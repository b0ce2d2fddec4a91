// Package main is the entrypoint for the EvalHunter API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/evalhunter/internal/ai"
	"github.com/kiranshivaraju/evalhunter/internal/analysis"
	"github.com/kiranshivaraju/evalhunter/internal/api"
	"github.com/kiranshivaraju/evalhunter/internal/api/handler"
	mw "github.com/kiranshivaraju/evalhunter/internal/api/middleware"
	"github.com/kiranshivaraju/evalhunter/internal/api/response"
	"github.com/kiranshivaraju/evalhunter/internal/cache"
	"github.com/kiranshivaraju/evalhunter/internal/config"
	"github.com/kiranshivaraju/evalhunter/internal/store"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backing services: Postgres (with migrations) and Redis. Both must
	// answer before the server takes traffic.
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database ready", "migrations", "applied")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis ready")

	aiProvider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("ai provider ready", "provider", aiProvider.Name())

	pgStore := store.NewPostgresStore(pool)

	// Clustering pipeline: cached embeddings feed a rate-limited
	// engine, driven by the async job service.
	embedder := ai.NewCachingEmbedder(aiProvider, redisCache, embeddingModelFor(cfg.AI))
	engine := analysis.NewEngine(embedder, aiProvider,
		analysis.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Clustering.EmbedRate), 1)),
	)
	clusterSvc := ai.NewClusterService(engine, aiProvider, pgStore, redisCache, cfg.Clustering.Timeout)

	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Clustering.RequestsPerMin),

		HealthHandler:    healthHandler(pgStore, redisCache),
		ClusterHandler:   handler.NewClusterHandler(clusterSvc),
		JobStatusHandler: handler.NewJobStatusHandler(pgStore, redisCache),
		ListReports:      handler.NewListReportsHandler(pgStore),
		GetReport:        handler.NewGetReportHandler(pgStore),
		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore),
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections")
	}

	// In-flight requests get shutdownTimeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// embeddingModelFor names the embedding model the active provider will use,
// which scopes the embedding cache keys.
func embeddingModelFor(cfg config.AIConfig) string {
	if cfg.Provider == "openai" {
		return cfg.OpenAI.EmbeddingModel
	}
	return cfg.Ollama.EmbeddingModel
}

// pinger is the one capability the health endpoint needs from each
// backing service.
type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler reports per-service connectivity. Any failing probe
// turns the whole endpoint into a 503 so load balancers stop routing
// here.
func healthHandler(db, kv pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok", "cache": "ok"}
		healthy := true

		probes := map[string]pinger{"database": db, "cache": kv}
		for name, p := range probes {
			if err := p.Ping(r.Context()); err != nil {
				checks[name] = "degraded"
				healthy = false
			}
		}

		if !healthy {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}
		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
