// Package paymentcreate реализует HTTP-обработчик создания платежа за подписку.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/resumia/resumia-backend/internal/http/middlewarectx"
	"github.com/resumia/resumia-backend/internal/http/response"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
	checkoutservice "github.com/resumia/resumia-backend/internal/services/checkout"
)

// Request — входные данные для создания платежа.
type Request struct {
	Plan string `json:"plan" validate:"required"`
}

// Service описывает контракт сервиса оформления подписки.
type Service interface {
	CreatePayment(ctx context.Context, userUID, plan string) (*paymentprovider.Preference, error)
}

type Handler struct {
	log             *slog.Logger
	checkoutService Service
	validate        *validator.Validate
}

func New(log *slog.Logger, checkoutService Service) *Handler {
	return &Handler{
		log:             log,
		checkoutService: checkoutService,
		validate:        validator.New(),
	}
}

// ServeHTTP создает платёжное предпочтение и возвращает ссылку на оплату.
// @Summary Создание платежа
// @Description Создает платёжное предпочтение в Mercado Pago для выбранного тарифа
// @Tags payment
// @Accept json
// @Produce json
// @Param request body Request true "Тариф подписки"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/create-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentcreate"

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

	pref, err := h.checkoutService.CreatePayment(r.Context(), userUID, req.Plan)
	if err != nil {
		if errors.Is(err, checkoutservice.ErrUnknownPlan) {
			log.Warn("unknown plan requested", slog.String("plan", req.Plan))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown plan"))
			return
		}
		log.Error("failed to create payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create payment"))
		return
	}

	log.Info("payment preference created",
		slog.String("user_uid", userUID), slog.String("preference_id", pref.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"init_point":   pref.InitPoint,
		"preferenceId": pref.ID,
	}))
}
