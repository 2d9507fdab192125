// Package main is the entrypoint for the Hindsight API server.
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

	"github.com/kiranshivaraju/hindsight/internal/ai"
	"github.com/kiranshivaraju/hindsight/internal/api"
	"github.com/kiranshivaraju/hindsight/internal/api/handler"
	mw "github.com/kiranshivaraju/hindsight/internal/api/middleware"
	"github.com/kiranshivaraju/hindsight/internal/cache"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/internal/extraction"
	"github.com/kiranshivaraju/hindsight/internal/metrics"
	"github.com/kiranshivaraju/hindsight/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
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
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"env", cfg.Server.Env,
		"corpus_source", cfg.Corpus.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	c, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", provider.Name())

	pgStore := store.NewPostgresStore(pool)
	m := metrics.New(prometheus.DefaultRegisterer)

	patterns := corpus.NewStore(newCorpusSource(cfg.Corpus, pgStore))
	patterns.OnLoad(m.RecordCorpusLoad)
	if _, err := patterns.Reload(ctx); err != nil {
		// analyses answer 503 until a reload succeeds
		slog.Warn("corpus not loaded at startup", "error", err)
	}

	analyzer := ai.NewAnalysisService(provider, patterns,
		ai.WithTimeout(cfg.AI.InferenceTimeout),
		ai.WithCache(c, cfg.Cache.AnalysisTTL),
		ai.WithAuditLog(pgStore),
		ai.WithObserver(m),
	)

	extractor := extraction.NewExtractor(provider,
		extraction.WithConcurrency(cfg.Extraction.Concurrency),
		extraction.WithRate(cfg.Extraction.RatePerSec),
	)
	extractions := extraction.NewService(extractor, patterns, cfg.Corpus.RawStoriesPath,
		extraction.WithJobStore(pgStore),
		extraction.WithCache(c),
		extraction.WithRecorder(m),
	)

	router := api.NewRouter(api.Dependencies{
		Auth:           mw.NewAuth(pgStore),
		RateLimit:      mw.NewRateLimit(c, cfg.RateLimit.PerMinute),
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),

		HealthHandler:      handler.NewHealthHandler(pgStore, c, patterns),
		AnalyzeHandler:     handler.NewAnalyzeHandler(analyzer),
		GetAnalysisHandler: handler.NewGetAnalysisHandler(pgStore),
		SummaryHandler:     handler.NewSummaryHandler(patterns),
		CategoriesHandler:  handler.NewCategoriesHandler(patterns),
		ExtractHandler:     handler.NewTriggerExtractionHandler(extractions),
		GetJobHandler:      handler.NewGetJobHandler(extractions),
		ReloadHandler:      handler.NewReloadHandler(patterns),
		CreateKeyHandler:   handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:    handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler:   handler.NewRevokeKeyHandler(pgStore),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.AI.InferenceTimeout),
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if cfg.Corpus.Source == config.CorpusSourceFile && cfg.Corpus.Watch {
		g.Go(func() error {
			if err := corpus.Watch(gctx, cfg.Corpus.Path, patterns, corpus.DefaultWatchDebounce); err != nil {
				slog.Warn("corpus watcher stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, draining connections...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		extractions.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newCache returns the Redis cache when REDIS_URL is set, otherwise an in-process LRU.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.Redis.URL == "" {
		mc, err := cache.NewMemoryCache(cfg.Cache.MemorySize)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory cache: %w", err)
		}
		slog.Info("using in-process cache", "size", cfg.Cache.MemorySize)
		return mc, func() {}, nil
	}

	rc, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return rc, func() { rc.Close() }, nil
}

// newCorpusSource selects where the pattern corpus is read from and saved to.
func newCorpusSource(cfg config.CorpusConfig, db corpus.Source) corpus.Source {
	if cfg.Source == config.CorpusSourcePostgres {
		return db
	}
	return corpus.NewFileSource(cfg.Path)
}

// writeTimeout leaves room for a full inference call plus response encoding.
func writeTimeout(inference time.Duration) time.Duration {
	return inference + 30*time.Second
}
