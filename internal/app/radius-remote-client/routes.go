// Package radiusremoteclient предоставляет маршруты для основного приложения.
package radiusremoteclient

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/config"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/auth/login"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/health"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/subscriber/create"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/subscriber/list"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/subscriber/read"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/subscriber/remove"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/subscriber/update"
	webhooklist "github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/webhook/list"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/webhook/register"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/handlers/webhook/unregister"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/middlewarectx"
	subscriberservice "github.com/SV-Com/RADIUS-Remote-Client/internal/services/subscriber"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/storage"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/webhooks"

	"log/slog"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, subscriberService *subscriberservice.Service, registry *webhooks.Registry, db *storage.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, cfg.APIKey).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с проверкой API-ключа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.APIKeyMiddleware(cfg.APIKey, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/subscribers", create.New(logger, subscriberService).ServeHTTP)
			r.Get("/subscribers", list.New(logger, subscriberService).ServeHTTP)
			r.Get("/subscribers/{username}", read.New(logger, subscriberService).ServeHTTP)
			r.Put("/subscribers/{username}", update.New(logger, subscriberService).ServeHTTP)
			r.Delete("/subscribers/{username}", remove.New(logger, subscriberService).ServeHTTP)

			if registry != nil {
				r.Post("/webhooks", register.New(logger, registry).ServeHTTP)
				r.Get("/webhooks", webhooklist.New(logger, registry).ServeHTTP)
				r.Delete("/webhooks/{id}", unregister.New(logger, registry).ServeHTTP)
			}
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
