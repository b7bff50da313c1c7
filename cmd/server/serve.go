package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	jwttoken "giyus/internal/jwt_token"
	"giyus/internal/lead"
	"giyus/internal/lead/handler"
	leadmetrics "giyus/internal/lead/metrics"
	"giyus/internal/lead/service"
	"giyus/internal/platform/config"
	"giyus/internal/platform/httpserver"
	"giyus/internal/platform/logger"
	"giyus/internal/platform/metrics"
	"giyus/internal/ratelimit"
	"giyus/pkg/platform/middleware/metadata"
	"giyus/pkg/platform/middleware/request"
	"giyus/pkg/platform/middleware/requesttime"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Server) error {
	log := logger.New(cfg.Environment, cfg.LogLevel)

	deps, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	reg := prometheus.DefaultRegisterer
	svc := lead.NewService(deps.leads, deps.ledger,
		service.WithLogger(log),
		service.WithAuditPublisher(deps.audit),
		service.WithMetrics(leadmetrics.New(reg)),
		service.WithBatchLimits(cfg.Batch.Concurrency, cfg.Batch.MaxIDs),
	)
	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	router := newRouter(log, metrics.New(reg), deps.health)
	var handlerOpts []handler.Option
	if cfg.RateLimit.WritesPerWindow > 0 {
		handlerOpts = append(handlerOpts, handler.WithWriteLimit(
			ratelimit.PerActor(deps.limiter, cfg.RateLimit.WritesPerWindow, cfg.RateLimit.Window, log),
		))
	}
	lead.NewHandler(svc, tokens, log, handlerOpts...).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting giyus",
			"addr", cfg.Addr,
			"lead_backend", cfg.LeadBackend,
			"ledger_backend", cfg.LedgerBackend,
			"kafka_audit", len(cfg.Kafka.Brokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newRouter(log *slog.Logger, m *metrics.Metrics, health func(context.Context) error) chi.Router {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Tracing)
	r.Use(request.Recovery(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Latency(m))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := health(ctx); err != nil {
			log.WarnContext(ctx, "health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
