// Package models содержит доменную модель пользователя сервиса ResumIA:
// учётную запись, состояние верификации почты и встроенную подписку.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionStatusFree     = "free"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPending  = "pending"
)

// Тарифные планы. Длительность оплаченного периода определяется планом.
const (
	PlanFree    = "free"
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// Subscription — подписка пользователя. Значимый тип, принадлежащий
// агрегату User; изменяется только логикой сверки платежей.
type Subscription struct {
	Status                string     `json:"status"`
	Plan                  string     `json:"plan"`
	GatewaySubscriptionID *string    `json:"-"`
	CurrentPeriodEnd      *time.Time `json:"currentPeriodEnd,omitempty"`
}

// User представляет зарегистрированного пользователя сервиса.
type User struct {
	UID                     string     // Уникальный идентификатор пользователя
	Email                   string     // Электронная почта (уникальная)
	Name                    string     // Отображаемое имя
	PasswordHash            string     // bcrypt-хэш пароля
	IsVerified              bool       // Подтверждена ли почта
	VerificationToken       *string    // Токен подтверждения почты
	VerificationTokenExpiry *time.Time // Срок действия токена подтверждения
	Subscription            Subscription
	CreatedAt               time.Time
}

// Profile — представление пользователя без секретов, отдаётся наружу.
type Profile struct {
	UID          string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	IsVerified   bool         `json:"isVerified"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// ToProfile возвращает представление пользователя без секретных полей.
func (u *User) ToProfile() Profile {
	return Profile{
		UID:          u.UID,
		Name:         u.Name,
		Email:        u.Email,
		IsVerified:   u.IsVerified,
		Subscription: u.Subscription,
		CreatedAt:    u.CreatedAt,
	}
}

// KnownPlan сообщает, является ли план оплачиваемым тарифом.
func KnownPlan(plan string) bool {
	return plan == PlanMonthly || plan == PlanAnnual
}

// PlanDuration возвращает длительность оплаченного периода для плана:
// 365 дней для годового, 30 дней для месячного и всех остальных значений.
func PlanDuration(plan string) time.Duration {
	if plan == PlanAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}
