package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/api/handlers"
	"github.com/yashbaviskar01/model-api/internal/api/routes"
	"github.com/yashbaviskar01/model-api/internal/app"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	"github.com/yashbaviskar01/model-api/pkg/config"
)

func main() {
	if err := app.LoadEnvironment(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logCloser := observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment, cfg.Logging)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	if application.CacheWarming != nil && cfg.Prompts.WarmInterval > 0 {
		application.CacheWarming.StartPeriodicWarming(ctx, cfg.Prompts.WarmInterval)
	}

	router := routes.NewRouter(
		handlers.NewChatHandler(application.Chat),
		handlers.NewKnowledgeBaseHandler(application.RAG),
		handlers.NewTableHandler(application.Descriptions, application.Embeddings),
		handlers.NewPromptHandler(application.Prompts),
		application.Metrics,
		application.WorkflowMetrics,
		cfg.CORS.AllowedOrigins,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Str("version", handlers.Version).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("server shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if err := application.Close(); err != nil {
		log.Error().Err(err).Msg("error releasing resources")
	}
	log.Info().Msg("server stopped")
}
