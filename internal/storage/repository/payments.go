package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
)

// CreatePayment вставляет новый платёж со статусом pending и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (int64, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (user_id, plan_id, receipt_ref, amount, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		payment.UserID, payment.PlanID, payment.ReceiptRef, payment.Amount,
		payment.Status).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPayment возвращает платёж по его ID.
func (s *Storage) GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan_id, receipt_ref, amount, status, decided_by, decided_at
			  FROM payments
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, paymentID)

	p := &models.Payment{}
	var decidedBy sql.NullInt64
	var decidedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.ReceiptRef, &p.Amount,
		&p.Status, &decidedBy, &decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if decidedBy.Valid {
		p.DecidedBy = &decidedBy.Int64
	}
	if decidedAt.Valid {
		p.DecidedAt = &decidedAt.Time
	}
	return p, nil
}

// DecidePayment атомарно выводит платёж из pending. Строка платежа
// блокируется, поэтому из двух конкурирующих решений ровно одно фиксируется,
// а второе получает ErrAlreadyDecided.
//
// При approve в той же транзакции создаётся активная подписка на
// durationDays суток, прежняя активная подписка пользователя (если была)
// помечается истекшей, а статус пользователя становится active. При отказе
// меняется только платёж.
func (s *Storage) DecidePayment(ctx context.Context, paymentID, adminID int64, approve bool, now time.Time, durationDays int) (*models.Subscription, error) {
	const op = "storage.DecidePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sub *models.Subscription
	err := s.runInTx(ctx, func(tx *sql.Tx) error {
		var userID int64
		var planID, status string
		row := tx.QueryRowContext(ctx,
			`SELECT user_id, plan_id, status FROM payments WHERE id = $1 FOR UPDATE`,
			paymentID)
		if err := row.Scan(&userID, &planID, &status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if status != models.PaymentStatusPending {
			return ErrAlreadyDecided
		}

		newStatus := models.PaymentStatusRejected
		if approve {
			newStatus = models.PaymentStatusApproved
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE payments SET status = $1, decided_by = $2, decided_at = $3 WHERE id = $4`,
			newStatus, adminID, now, paymentID); err != nil {
			return err
		}
		if !approve {
			return nil
		}

		// Не более одной активной подписки на пользователя: одобренное
		// продление закрывает прежний период.
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET status = $1 WHERE user_id = $2 AND status = $3`,
			models.SubscriptionStatusExpired, userID, models.SubscriptionStatusActive); err != nil {
			return err
		}

		endAt := now.Add(time.Duration(durationDays) * 24 * time.Hour)
		var subID int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO subscriptions (user_id, plan_id, start_at, end_at, status)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			userID, planID, now, endAt, models.SubscriptionStatusActive).Scan(&subID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET status = $1 WHERE user_id = $2`,
			models.UserStatusActive, userID); err != nil {
			return err
		}

		sub = &models.Subscription{
			ID:      subID,
			UserID:  userID,
			PlanID:  planID,
			StartAt: now,
			EndAt:   endAt,
			Status:  models.SubscriptionStatusActive,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}
