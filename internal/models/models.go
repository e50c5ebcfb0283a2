// Package models содержит доменные структуры: тарифные планы, пользователи,
// платежи и подписки, а также вспомогательные типы для приёма данных
// из внешних источников (JSON-запросы).
package models

import "time"

// Статусы пользователя. Status пользователя — производный кеш от наличия
// активной подписки и обновляется каждым переходом, меняющим подписку.
const (
	UserStatusPending = "pending"
	UserStatusActive  = "active"
	UserStatusExpired = "expired"
)

// Статусы платежа. Из pending платёж выходит ровно один раз.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// Статусы подписки.
const (
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

// Plan описывает тарифный план канала. Записи создаются при первом запуске
// и не изменяются, пока на них ссылаются платежи или подписки.
type Plan struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DurationDays int     `json:"duration_days"`
	Price        float64 `json:"price"`
}

// User представляет пользователя, написавшего боту хотя бы один раз.
// SelectedPlanID — выбранный, но ещё не оплаченный план; доступа сам по себе
// не даёт.
type User struct {
	UserID         int64   `json:"user_id"`
	UID            string  `json:"uid"`
	DisplayName    string  `json:"display_name"`
	Status         string  `json:"status"`
	SelectedPlanID *string `json:"selected_plan_id,omitempty"`
}

// Payment — одна отправка чека об оплате. После выхода из pending запись
// неизменяема и никогда не удаляется.
type Payment struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	PlanID     string     `json:"plan_id"`
	ReceiptRef string     `json:"receipt_ref"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status"`
	DecidedBy  *int64     `json:"decided_by,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// Subscription — период доступа к каналу, созданный одобренным платежом.
// У пользователя может быть много строк-историй, но не более одной активной.
type Subscription struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	PlanID  string    `json:"plan_id"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Status  string    `json:"status"`
}

// DummyRegisterRequest используется для приёма данных регистрации пользователя.
type DummyRegisterRequest struct {
	UserID      int64  `json:"user_id" validate:"required"`
	DisplayName string `json:"display_name"`
}

// DummySelectPlanRequest используется для приёма выбора плана.
type DummySelectPlanRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// DummyReceiptRequest используется для приёма ссылки на чек.
type DummyReceiptRequest struct {
	ReceiptRef string `json:"receipt_ref" validate:"required"`
}

// DummyDecisionRequest используется для приёма решения администратора по платежу.
type DummyDecisionRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// DummyExtendRequest используется для приёма продления подписки.
type DummyExtendRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// DummyLoginRequest используется для приёма учетных данных администратора.
type DummyLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LifecycleEvent — событие жизненного цикла, публикуемое в очередь
// для операторов (одобрения, истечения, проглоченные сбои доставки).
type LifecycleEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	UserID     int64     `json:"user_id,omitempty"`
	PaymentID  int64     `json:"payment_id,omitempty"`
	PlanID     string    `json:"plan_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
