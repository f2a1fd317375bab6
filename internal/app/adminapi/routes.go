// Package adminapi предоставляет административный HTTP-сервис биллинга.
package adminapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clubops/club-billing/internal/http/handlers/billing/health"
	"github.com/clubops/club-billing/internal/http/handlers/billing/refresh"
	"github.com/clubops/club-billing/internal/http/handlers/configset"
	"github.com/clubops/club-billing/internal/http/handlers/payment/record"
	"github.com/clubops/club-billing/internal/http/middlewarectx"
	billingservice "github.com/clubops/club-billing/internal/services/billing"
)

// RegisterRoutes регистрирует все маршруты административного API.
func RegisterRoutes(r chi.Router, logger *slog.Logger, engine *billingservice.Engine) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Post("/billing/refresh", refresh.New(logger, engine).ServeHTTP)
		r.Post("/shares/{id}/payment", record.New(logger, engine).ServeHTTP)
		r.Put("/config/base-amount", configset.New(logger, engine).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
