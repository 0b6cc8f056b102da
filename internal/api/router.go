package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"proxify/internal/api/handlers/http/alerts"
	"proxify/internal/api/handlers/http/system"
	"proxify/internal/api/handlers/http/webhooks"
	"proxify/internal/config"
	"proxify/internal/middleware"
	"proxify/internal/service"
)

const (
	maxAlertBody   = 64 << 10
	maxWebhookBody = 256 << 10
	visitorTTL     = 5 * time.Minute
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

// NewServer builds the HTTP surface. ctx bounds the rate limiter's background cleanup.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, svc *service.Service, counter system.AlertCounter, health ...system.Option) *Server {
	alertHandler := alerts.NewHandler(logger, svc, svc, svc)
	webhookHandler := webhooks.NewHandler(logger, svc)
	systemHandler := system.NewHandler(logger, counter, health...)

	r := InitRouter(ctx, cfg, alertHandler, webhookHandler, systemHandler, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(
	ctx context.Context,
	cfg *config.Config,
	alertHandler *alerts.Handler,
	webhookHandler *webhooks.Handler,
	systemHandler *system.Handler,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Route("/api/v1", func(api chi.Router) {
		// signed producer deliveries
		api.With(middleware.RequireJSON(maxWebhookBody)).
			Post("/webhooks/alerts", webhookHandler.WebhookAlert)

		api.Route("/alerts", func(ar chi.Router) {
			ar.Group(func(pr chi.Router) {
				pr.Use(middleware.Limit(ctx, cfg.Http.RateLimitRPS, cfg.Http.RateLimitBurst, visitorTTL, logger))
				pr.Get("/nearby", alertHandler.AlertsNearby)
				pr.Get("/knn", alertHandler.AlertsKNN)
				pr.Get("/{id}", alertHandler.AlertGet)
			})

			ar.Group(func(wr chi.Router) {
				wr.Use(middleware.APIKeyMiddleware(cfg.APIKey))
				wr.Use(middleware.RequireJSON(maxAlertBody))
				wr.Post("/", alertHandler.AlertCreate)
				wr.Put("/{id}", alertHandler.AlertReplace)
				wr.Delete("/{id}", alertHandler.AlertDelete)
				wr.Post("/{id}/review", alertHandler.AlertReview)
			})

			// moderation reads
			ar.Group(func(mr chi.Router) {
				mr.Use(middleware.APIKeyMiddleware(cfg.APIKey))
				mr.Get("/pending", alertHandler.AlertsPending)
				mr.Get("/{id}/votes", alertHandler.AlertVotes)
			})
		})

		api.Get("/health", systemHandler.SystemHealth)
	})

	return r
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
