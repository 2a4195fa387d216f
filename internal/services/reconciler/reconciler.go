// Package reconciler сверяет платежи со шлюзом и приводит состояние
// подписки пользователя в соответствие со статусом оплаты. Используется
// как вебхуком платёжного шлюза, так и ручной сверкой после возврата
// пользователя со страницы оплаты.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/resumia/resumia-backend/internal/cache"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/models"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
)

// ErrPaymentMismatch платёж принадлежит другому пользователю.
var ErrPaymentMismatch = errors.New("payment does not belong to user")

// Статусы платежа, возвращаемые шлюзом.
const (
	paymentStatusApproved  = "approved"
	paymentStatusRejected  = "rejected"
	paymentStatusPending   = "pending"
	paymentStatusInProcess = "in_process"
)

// Outcome результат сверки платежа.
type Outcome struct {
	// PaymentStatus статус платежа у шлюза.
	PaymentStatus string
	// SubscriptionStatus статус подписки после сверки.
	SubscriptionStatus string
	// Changed подписка была изменена этой сверкой.
	Changed bool
	// Duplicate событие уже было обработано ранее.
	Duplicate bool
}

// UserRepository описывает контракт для работы с пользователями.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateSubscription(ctx context.Context, userUID string, sub models.Subscription) error
}

// EventRepository описывает контракт журнала обработанных событий шлюза.
type EventRepository interface {
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
	UnmarkEventProcessed(ctx context.Context, eventID string) error
}

// GatewayClient описывает контракт клиента платёжного шлюза.
type GatewayClient interface {
	GetPayment(ctx context.Context, paymentID int64) (*paymentprovider.Payment, error)
}

// CacheInvalidator описывает контракт сброса кэша профилей.
type CacheInvalidator interface {
	Invalidate(key string) error
}

// ReconcilerService приводит подписку пользователя в соответствие
// со статусом платежа у шлюза.
type ReconcilerService struct {
	users    UserRepository
	events   EventRepository
	gateway  GatewayClient
	profiles CacheInvalidator
	log      *slog.Logger
	now      func() time.Time
}

// NewReconcilerService создает новый экземпляр ReconcilerService.
func NewReconcilerService(users UserRepository, events EventRepository,
	gateway GatewayClient, profiles CacheInvalidator, log *slog.Logger) *ReconcilerService {
	return &ReconcilerService{
		users:    users,
		events:   events,
		gateway:  gateway,
		profiles: profiles,
		log:      log,
		now:      time.Now,
	}
}

// Reconcile сверяет платёж для известного пользователя. Платёж, чья внешняя
// ссылка не совпадает с UID пользователя, отклоняется без изменения подписки.
func (s *ReconcilerService) Reconcile(ctx context.Context, userUID string, paymentID int64) (*Outcome, error) {
	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if payment.ExternalReference != user.UID {
		return nil, ErrPaymentMismatch
	}
	return s.apply(ctx, user, payment)
}

// ReconcileEvent сверяет платёж по событию вебхука. Каждое событие
// обрабатывается ровно один раз: повторная доставка возвращает Outcome
// с признаком Duplicate без обращения к шлюзу.
func (s *ReconcilerService) ReconcileEvent(ctx context.Context, action string, paymentID int64) (*Outcome, error) {
	eventID := action + ":" + strconv.FormatInt(paymentID, 10)

	fresh, err := s.events.MarkEventProcessed(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !fresh {
		s.log.Info("duplicate webhook event ignored", slog.String("event_id", eventID))
		return &Outcome{Duplicate: true}, nil
	}

	outcome, err := s.reconcileByPayment(ctx, paymentID)
	if err != nil {
		// Снимаем отметку, чтобы повторная доставка события могла
		// обработать его после устранения сбоя.
		if unmarkErr := s.events.UnmarkEventProcessed(ctx, eventID); unmarkErr != nil {
			s.log.Error("failed to unmark event", slog.String("event_id", eventID), sl.Err(unmarkErr))
		}
		return nil, err
	}
	return outcome, nil
}

func (s *ReconcilerService) reconcileByPayment(ctx context.Context, paymentID int64) (*Outcome, error) {
	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, payment.ExternalReference)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, payment)
}

// apply применяет статус платежа к подписке пользователя.
func (s *ReconcilerService) apply(ctx context.Context, user *models.User, payment *paymentprovider.Payment) (*Outcome, error) {
	outcome := &Outcome{
		PaymentStatus:      payment.Status,
		SubscriptionStatus: user.Subscription.Status,
	}

	switch payment.Status {
	case paymentStatusApproved:
		if user.Subscription.Status == models.SubscriptionStatusActive {
			return outcome, nil
		}
		plan := payment.Metadata.Plan
		if !models.KnownPlan(plan) || plan == models.PlanFree {
			plan = models.PlanMonthly
		}
		base := s.now().UTC()
		if user.Subscription.CurrentPeriodEnd != nil && user.Subscription.CurrentPeriodEnd.After(base) {
			base = *user.Subscription.CurrentPeriodEnd
		}
		periodEnd := base.Add(models.PlanDuration(plan))
		gatewayID := strconv.FormatInt(payment.ID, 10)

		sub := models.Subscription{
			Status:                models.SubscriptionStatusActive,
			Plan:                  plan,
			GatewaySubscriptionID: &gatewayID,
			CurrentPeriodEnd:      &periodEnd,
		}
		if err := s.users.UpdateSubscription(ctx, user.UID, sub); err != nil {
			return nil, err
		}
		s.invalidateProfile(user.UID)
		outcome.SubscriptionStatus = sub.Status
		outcome.Changed = true
		return outcome, nil

	case paymentStatusRejected:
		return s.setStatus(ctx, user, models.SubscriptionStatusCanceled, outcome)

	case paymentStatusPending, paymentStatusInProcess:
		return s.setStatus(ctx, user, models.SubscriptionStatusPending, outcome)

	default:
		s.log.Warn("unrecognized payment status, subscription unchanged",
			slog.String("user_uid", user.UID),
			slog.Int64("payment_id", payment.ID),
			slog.String("payment_status", payment.Status))
		return outcome, nil
	}
}

// setStatus меняет только статус подписки, сохраняя тариф и границу периода.
func (s *ReconcilerService) setStatus(ctx context.Context, user *models.User, status string, outcome *Outcome) (*Outcome, error) {
	if user.Subscription.Status == status {
		return outcome, nil
	}
	sub := user.Subscription
	sub.Status = status
	if err := s.users.UpdateSubscription(ctx, user.UID, sub); err != nil {
		return nil, err
	}
	s.invalidateProfile(user.UID)
	outcome.SubscriptionStatus = status
	outcome.Changed = true
	return outcome, nil
}

func (s *ReconcilerService) invalidateProfile(userUID string) {
	if err := s.profiles.Invalidate(cache.ProfileKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate profile cache",
			slog.String("user_uid", userUID), sl.Err(err))
	}
}
