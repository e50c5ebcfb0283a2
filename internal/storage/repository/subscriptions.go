package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
)

// GetActiveSubscription возвращает активную подписку пользователя.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan_id, start_at, end_at, status
			  FROM subscriptions
			  WHERE user_id = $1 AND status = $2
			  ORDER BY id DESC
			  LIMIT 1`
	var sub models.Subscription
	row := s.DB.QueryRowContext(ctx, query, userID, models.SubscriptionStatusActive)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.StartAt,
		&sub.EndAt, &sub.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoActiveSubscription)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ExtendActiveSubscription сдвигает end_at активной подписки пользователя
// на delta вперёд. Строка блокируется, поэтому продление сериализуется
// с конкурирующей проверкой истечений: либо подписка продлена и остаётся
// активной, либо уже истекла и возвращается ErrNoActiveSubscription.
func (s *Storage) ExtendActiveSubscription(ctx context.Context, userID int64, delta time.Duration) (*models.Subscription, error) {
	const op = "storage.ExtendActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sub models.Subscription
	err := s.runInTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id FROM subscriptions
			 WHERE user_id = $1 AND status = $2
			 ORDER BY id DESC
			 LIMIT 1
			 FOR UPDATE`,
			userID, models.SubscriptionStatusActive)
		var subID int64
		if err := row.Scan(&subID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoActiveSubscription
			}
			return err
		}

		return tx.QueryRowContext(ctx,
			`UPDATE subscriptions
			 SET end_at = end_at + $1
			 WHERE id = $2
			 RETURNING id, user_id, plan_id, start_at, end_at, status`,
			delta, subID).Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.StartAt,
			&sub.EndAt, &sub.Status)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ExpireSubscription переводит подписку из active в expired и помечает
// пользователя истекшим. Возвращает false, если подписку уже истёк кто-то
// другой (конкурирующий sweep или админ) — повторная обработка пропускается.
func (s *Storage) ExpireSubscription(ctx context.Context, subscriptionID, userID int64) (bool, error) {
	const op = "storage.ExpireSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var claimed bool
	err := s.runInTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE subscriptions
			 SET status = $1
			 WHERE id = $2 AND status = $3`,
			models.SubscriptionStatusExpired, subscriptionID, models.SubscriptionStatusActive)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return nil
		}
		claimed = true

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET status = $1 WHERE user_id = $2`,
			models.UserStatusExpired, userID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return claimed, nil
}

// ListExpiring возвращает активные подписки, срок которых к моменту now
// уже вышел.
func (s *Storage) ListExpiring(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListExpiring"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan_id, start_at, end_at, status
			  FROM subscriptions
			  WHERE status = $1 AND end_at <= $2
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, models.SubscriptionStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err := rows.Scan(&item.ID, &item.UserID, &item.PlanID, &item.StartAt,
			&item.EndAt, &item.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
