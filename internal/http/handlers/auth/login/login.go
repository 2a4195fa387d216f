// Package login реализует HTTP-обработчик входа пользователя.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/resumia/resumia-backend/internal/http/middlewarectx"
	"github.com/resumia/resumia-backend/internal/http/response"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/models"
	authservice "github.com/resumia/resumia-backend/internal/services/auth"
)

// Request — входные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service описывает контракт сервиса аутентификации.
type Service interface {
	Login(ctx context.Context, email, rawPassword string) (string, *models.User, error)
}

type Handler struct {
	log         *slog.Logger
	authService Service
	tokenTTL    time.Duration
	validate    *validator.Validate
}

func New(log *slog.Logger, authService Service, tokenTTL time.Duration) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		tokenTTL:    tokenTTL,
		validate:    validator.New(),
	}
}

// ServeHTTP выполняет вход пользователя и устанавливает cookie сессии.
// @Summary Вход пользователя
// @Description Проверяет учетные данные и устанавливает JWT в httpOnly cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.Response
// @Router /api/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrInvalidCredentials):
			log.Warn("invalid credentials", slog.String("email", req.Email))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid email or password"))
		case errors.Is(err, authservice.ErrEmailNotVerified):
			log.Warn("email not verified", slog.String("email", req.Email))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("email not verified"))
		default:
			log.Error("login failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to login"))
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	log.Info("user logged in", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.StatusOKWithData(user.ToProfile()))
}
