// Package resumia предоставляет маршруты для основного приложения.
package resumia

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/resumia/resumia-backend/internal/config"
	"github.com/resumia/resumia-backend/internal/http/handlers/auth/login"
	"github.com/resumia/resumia-backend/internal/http/handlers/auth/register"
	"github.com/resumia/resumia-backend/internal/http/handlers/auth/verifyemail"
	"github.com/resumia/resumia-backend/internal/http/handlers/payment/paymentcreate"
	"github.com/resumia/resumia-backend/internal/http/handlers/payment/paymentmanual"
	"github.com/resumia/resumia-backend/internal/http/handlers/payment/paymentwebhook"
	"github.com/resumia/resumia-backend/internal/http/handlers/user/me"
	"github.com/resumia/resumia-backend/internal/http/middlewarectx"
	authservice "github.com/resumia/resumia-backend/internal/services/auth"
	checkoutservice "github.com/resumia/resumia-backend/internal/services/checkout"
	reconcilerservice "github.com/resumia/resumia-backend/internal/services/reconciler"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.AuthService,
	checkoutService *checkoutservice.CheckoutService,
	reconcilerService *reconcilerservice.ReconcilerService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService, cfg.TokenTTL).ServeHTTP)
		r.Get("/verify-email/{token}", verifyemail.New(logger, authService, cfg.BaseURL).ServeHTTP)

		// Webhook endpoint (без аутентификации, проверяется по подписи)
		r.Post("/webhooks/mercadopago", paymentwebhook.New(logger, reconcilerService, cfg.Gateway.WebhookSecret).ServeHTTP)

		// Группа с аутентификацией по cookie сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/user/me", me.New(logger, authService).ServeHTTP)
			r.Post("/create-payment", paymentcreate.New(logger, checkoutService).ServeHTTP)
			r.Post("/update-subscription-manual", paymentmanual.New(logger, reconcilerService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
