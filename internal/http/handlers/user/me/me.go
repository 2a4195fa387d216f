// Package me реализует HTTP-обработчик получения профиля текущего пользователя.
package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/resumia/resumia-backend/internal/http/middlewarectx"
	"github.com/resumia/resumia-backend/internal/http/response"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/models"
	"github.com/resumia/resumia-backend/internal/storage/repository"
)

// Service описывает контракт сервиса профилей.
type Service interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

type Handler struct {
	log         *slog.Logger
	authService Service
}

func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
	}
}

// ServeHTTP возвращает профиль текущего пользователя, включая состояние подписки.
// @Summary Профиль текущего пользователя
// @Description Возвращает данные пользователя и состояние его подписки
// @Tags user
// @Produce json
// @Success 200 {object} response.Response{data=models.Profile}
// @Failure 401 {object} response.ErrorResponse
// @Router /api/user/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("missing user uid in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	profile, err := h.authService.GetProfile(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Warn("user not found", slog.String("user_uid", userUID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to get profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get profile"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(profile))
}
