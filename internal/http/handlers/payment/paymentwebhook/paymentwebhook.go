// Package paymentwebhook реализует HTTP-обработчик вебхука платёжного шлюза.
//
// Шлюз уведомляет сервис об изменении статуса платежа. Каждое уведомление
// проверяется по HMAC-подписи из заголовка x-signature, после чего платёж
// сверяется со шлюзом и подписка пользователя приводится в соответствие.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/resumia/resumia-backend/internal/http/response"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
	"github.com/resumia/resumia-backend/internal/services/reconciler"
	"github.com/resumia/resumia-backend/internal/storage/repository"
)

var webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "resumia_webhook_events_total",
	Help: "Webhook events by action and processing result.",
}, []string{"action", "result"})

// Payload — тело уведомления платёжного шлюза.
type Payload struct {
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Service описывает контракт сервиса сверки платежей.
type Service interface {
	ReconcileEvent(ctx context.Context, action string, paymentID int64) (*reconciler.Outcome, error)
}

type Handler struct {
	log               *slog.Logger
	reconcilerService Service
	webhookSecret     string
}

func New(log *slog.Logger, reconcilerService Service, webhookSecret string) *Handler {
	return &Handler{
		log:               log,
		reconcilerService: reconcilerService,
		webhookSecret:     webhookSecret,
	}
}

// ServeHTTP обрабатывает уведомление платёжного шлюза.
// Уведомления о ненайденном платеже или пользователе подтверждаются
// статусом 200, чтобы шлюз не повторял доставку бесконечно.
// @Summary Вебхук Mercado Pago
// @Description Принимает уведомление об изменении статуса платежа и сверяет подписку
// @Tags payment
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/webhooks/mercadopago [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !h.verifySignature(r.Header.Get("x-signature"), body) {
		log.Warn("invalid webhook signature")
		webhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to decode webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !strings.HasPrefix(payload.Action, "payment.") {
		log.Info("non-payment event ignored", slog.String("action", payload.Action))
		webhookEvents.WithLabelValues(payload.Action, "ignored").Inc()
		render.JSON(w, r, response.StatusOKWithMessage("event ignored"))
		return
	}

	paymentID, err := strconv.ParseInt(payload.Data.ID, 10, 64)
	if err != nil {
		log.Error("invalid payment id in payload", slog.String("data_id", payload.Data.ID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment id"))
		return
	}

	outcome, err := h.reconcilerService.ReconcileEvent(r.Context(), payload.Action, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, paymentprovider.ErrPaymentNotFound):
			log.Warn("payment not found at gateway", slog.Int64("payment_id", paymentID))
			webhookEvents.WithLabelValues(payload.Action, "payment_not_found").Inc()
			render.JSON(w, r, response.StatusOKWithMessage("payment not found, event ignored"))
		case errors.Is(err, repository.ErrUserNotFound):
			log.Warn("user from payment not found", slog.Int64("payment_id", paymentID))
			webhookEvents.WithLabelValues(payload.Action, "user_not_found").Inc()
			render.JSON(w, r, response.StatusOKWithMessage("user not found, event ignored"))
		default:
			log.Error("failed to reconcile payment", sl.Err(err))
			webhookEvents.WithLabelValues(payload.Action, "error").Inc()
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process event"))
		}
		return
	}

	if outcome.Duplicate {
		webhookEvents.WithLabelValues(payload.Action, "duplicate").Inc()
		render.JSON(w, r, response.StatusOKWithMessage("event already processed"))
		return
	}

	log.Info("webhook event processed",
		slog.String("action", payload.Action),
		slog.Int64("payment_id", paymentID),
		slog.String("payment_status", outcome.PaymentStatus),
		slog.Bool("changed", outcome.Changed))
	webhookEvents.WithLabelValues(payload.Action, "processed").Inc()
	render.JSON(w, r, response.StatusOKWithMessage("event processed"))
}

// verifySignature проверяет HMAC-подпись уведомления.
// Заголовок имеет вид "ts=<timestamp>,v1=<hex>", подпись считается
// по строке "{ts}|{body}" с секретом вебхука.
func (h *Handler) verifySignature(header string, body []byte) bool {
	if header == "" {
		return false
	}

	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("|"))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(v1))
}
