// Package middlewarectx содержит HTTP middleware для проверки сессии пользователя.
//
// SessionMiddleware проверяет наличие и валидность JWT токена в cookie сессии,
// и в случае успеха добавляет в контекст UID пользователя для дальнейшего
// использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/resumia/resumia-backend/internal/http/response"
	"github.com/resumia/resumia-backend/internal/lib/sl"
)

// SessionCookieName имя cookie, в которой хранится JWT токен сессии.
const SessionCookieName = "token"

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserUID — ключ для UID пользователя в контексте.
const UserUID Key = "user_uid"

// Service описывает интерфейс сервиса для валидации JWT токена сессии.
type Service interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// SessionMiddleware возвращает HTTP middleware, который проверяет JWT из cookie сессии.
//
// Если токен валиден, добавляет UID пользователя в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func SessionMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log = log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				log.Error("missing session cookie")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			userUID, err := authService.ValidateToken(r.Context(), cookie.Value)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserUID, userUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
