// Package paymentmanual реализует HTTP-обработчик ручной сверки платежа.
//
// Используется после возврата пользователя со страницы оплаты, когда
// уведомление вебхука ещё не дошло или было потеряно.
package paymentmanual

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/resumia/resumia-backend/internal/http/middlewarectx"
	"github.com/resumia/resumia-backend/internal/http/response"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
	"github.com/resumia/resumia-backend/internal/services/reconciler"
	"github.com/resumia/resumia-backend/internal/storage/repository"
)

// Request — входные данные для ручной сверки платежа.
type Request struct {
	PaymentID string `json:"paymentId" validate:"required,numeric"`
}

// Service описывает контракт сервиса сверки платежей.
type Service interface {
	Reconcile(ctx context.Context, userUID string, paymentID int64) (*reconciler.Outcome, error)
}

type Handler struct {
	log               *slog.Logger
	reconcilerService Service
	validate          *validator.Validate
}

func New(log *slog.Logger, reconcilerService Service) *Handler {
	return &Handler{
		log:               log,
		reconcilerService: reconcilerService,
		validate:          validator.New(),
	}
}

// ServeHTTP сверяет платёж текущего пользователя со шлюзом и обновляет подписку.
// @Summary Ручная сверка платежа
// @Description Сверяет платёж со шлюзом и обновляет подписку текущего пользователя
// @Tags payment
// @Accept json
// @Produce json
// @Param request body Request true "Идентификатор платежа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/update-subscription-manual [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentmanual"

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

	paymentID, err := strconv.ParseInt(req.PaymentID, 10, 64)
	if err != nil {
		log.Error("invalid payment id", slog.String("payment_id", req.PaymentID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment id"))
		return
	}

	outcome, err := h.reconcilerService.Reconcile(r.Context(), userUID, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, reconciler.ErrPaymentMismatch):
			log.Warn("payment belongs to another user",
				slog.String("user_uid", userUID), slog.Int64("payment_id", paymentID))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("payment does not belong to user"))
		case errors.Is(err, paymentprovider.ErrPaymentNotFound):
			// Шлюз может ещё не проиндексировать свежий платёж,
			// клиент повторит запрос позже.
			log.Warn("payment not found at gateway", slog.Int64("payment_id", paymentID))
			render.JSON(w, r, response.StatusOKWithMessage("payment not found"))
		case errors.Is(err, repository.ErrUserNotFound):
			log.Warn("user not found", slog.String("user_uid", userUID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to reconcile payment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update subscription"))
		}
		return
	}

	log.Info("manual reconciliation finished",
		slog.String("user_uid", userUID),
		slog.Int64("payment_id", paymentID),
		slog.String("payment_status", outcome.PaymentStatus),
		slog.Bool("changed", outcome.Changed))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_status":      outcome.PaymentStatus,
		"subscription_status": outcome.SubscriptionStatus,
		"changed":             outcome.Changed,
	}))
}
