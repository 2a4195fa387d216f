// Package verifyemail реализует HTTP-обработчик подтверждения почты по ссылке из письма.
package verifyemail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/resumia/resumia-backend/internal/lib/sl"
	authservice "github.com/resumia/resumia-backend/internal/services/auth"
)

// Service описывает контракт сервиса подтверждения почты.
type Service interface {
	VerifyEmail(ctx context.Context, verificationToken string) error
}

type Handler struct {
	log         *slog.Logger
	authService Service
	baseURL     string
}

func New(log *slog.Logger, authService Service, baseURL string) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		baseURL:     baseURL,
	}
}

// ServeHTTP подтверждает почту и перенаправляет пользователя на страницу входа.
// Переход по ссылке происходит из письма, поэтому результат сообщается
// редиректом, а не JSON-ответом.
// @Summary Подтверждение почты
// @Description Подтверждает почту по токену из письма и перенаправляет на страницу входа
// @Tags auth
// @Param token path string true "Токен подтверждения"
// @Success 302
// @Router /api/verify-email/{token} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyemail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := chi.URLParam(r, "token")
	if token == "" {
		log.Warn("empty verification token")
		http.Redirect(w, r, h.baseURL+"/login?error=invalid_token", http.StatusFound)
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, authservice.ErrInvalidVerificationToken) {
			log.Warn("invalid or expired verification token")
			http.Redirect(w, r, h.baseURL+"/login?error=invalid_token", http.StatusFound)
			return
		}
		log.Error("failed to verify email", sl.Err(err))
		http.Redirect(w, r, h.baseURL+"/login?error=server_error", http.StatusFound)
		return
	}

	log.Info("email verified")
	http.Redirect(w, r, h.baseURL+"/login?success=email_verified", http.StatusFound)
}
