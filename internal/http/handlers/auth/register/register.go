// Package register реализует HTTP-обработчик регистрации пользователя.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/resumia/resumia-backend/internal/http/response"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/storage/repository"
)

// Request — входные данные для регистрации.
type Request struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Service описывает контракт сервиса регистрации.
type Service interface {
	Register(ctx context.Context, email, name, rawPassword string) (string, error)
}

type Handler struct {
	log         *slog.Logger
	authService Service
	validate    *validator.Validate
}

func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		validate:    validator.New(),
	}
}

// ServeHTTP регистрирует пользователя.
// @Summary Регистрация пользователя
// @Description Создает пользователя и отправляет письмо подтверждения почты
// @Tags auth
// @Accept json
// @Produce json
// @Param request body Request true "Данные регистрации"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.Response
// @Router /api/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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
	log.Info("request body decoded", slog.String("email", req.Email))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	uid, err := h.authService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			log.Warn("email already taken", slog.String("email", req.Email))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("email already registered"))
			return
		}
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	log.Info("user registered", slog.String("user_uid", uid))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":         uid,
		"name":       req.Name,
		"email":      req.Email,
		"isVerified": false,
		"message":    "user created, verification email sent",
	}))
}
