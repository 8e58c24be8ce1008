// Package main provides the entry point for the research assistant HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LoganNickels654/research-assistant-service/internal/auth"
	"github.com/LoganNickels654/research-assistant-service/internal/config"
	"github.com/LoganNickels654/research-assistant-service/internal/database"
	"github.com/LoganNickels654/research-assistant-service/internal/llm"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
	"github.com/LoganNickels654/research-assistant-service/internal/pipeline"
	"github.com/LoganNickels654/research-assistant-service/internal/pubmed"
	"github.com/LoganNickels654/research-assistant-service/internal/quota"
	"github.com/LoganNickels654/research-assistant-service/internal/repository"
	httpserver "github.com/LoganNickels654/research-assistant-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("research-assistant-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Create repositories.
	savedPaperRepo := repository.NewPgSavedPaperRepository(db)
	usageRepo := repository.NewPgUsageRepository(db)

	// Set up metrics.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("research_assistant")
	}

	// Create the LLM completion client used by translation and ranking.
	completionClient, err := llm.NewCompletionClient(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	logger.Info().Str("provider", cfg.LLM.Provider).Msg("LLM client initialized")

	// Create the PubMed E-utilities client.
	pubmedClient := pubmed.New(pubmed.Config{
		BaseURL:       cfg.PubMed.BaseURL,
		Email:         cfg.PubMed.Email,
		APIKey:        cfg.PubMed.APIKey,
		SearchTimeout: cfg.PubMed.SearchTimeout,
		FetchTimeout:  cfg.PubMed.FetchTimeout,
		RateLimit:     cfg.PubMed.RateLimit,
	}).WithMetrics(metrics)

	// Assemble the research pipeline.
	translator := pipeline.NewQueryTranslator(completionClient, logger).WithMetrics(metrics)
	ranker := pipeline.NewRelevanceRanker(completionClient, logger).WithMetrics(metrics)
	researchPipeline := pipeline.New(translator, pubmedClient, ranker, logger).WithMetrics(metrics)

	// Auth and quota services.
	tokenService := auth.NewTokenService(
		cfg.Auth.SigningKey,
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
		cfg.Auth.TokenTTL,
	)
	quotaService := quota.NewService(usageRepo, cfg.Quota.MonthlySearches, logger)

	// Create the HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit: httpserver.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
		},
		Search: httpserver.SearchConfig{
			DefaultMaxPapers:  cfg.Search.DefaultMaxPapers,
			MaxPapersLimit:    cfg.Search.MaxPapersLimit,
			QuestionMaxLength: cfg.Search.QuestionMaxLength,
		},
	}

	httpSrv := httpserver.NewServer(
		httpCfg,
		researchPipeline,
		savedPaperRepo,
		quotaService,
		tokenService,
		db,
		metrics,
		logger,
	)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("research-assistant-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down research-assistant-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("research-assistant-service shutdown complete")
	return nil
}
