package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
)

// GetPlan возвращает тарифный план по его ID.
func (s *Storage) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, duration_days, price
			  FROM plans
			  WHERE id = $1`
	var plan models.Plan
	row := s.DB.QueryRowContext(ctx, query, planID)
	if err := row.Scan(&plan.ID, &plan.Name, &plan.DurationDays, &plan.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &plan, nil
}

// ListPlans возвращает все тарифные планы в порядке их идентификаторов.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, duration_days, price
			  FROM plans
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		var item models.Plan
		if err := rows.Scan(&item.ID, &item.Name, &item.DurationDays, &item.Price); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SeedPlans добавляет стартовый набор планов, только если каталог пуст.
// Существующие записи при рестарте не перезаписываются.
func (s *Storage) SeedPlans(ctx context.Context, plans []models.Plan) error {
	const op = "storage.SeedPlans"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.runInTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		query := `INSERT INTO plans (id, name, duration_days, price)
				  VALUES ($1, $2, $3, $4)`
		for _, plan := range plans {
			if _, err := tx.ExecContext(ctx, query,
				plan.ID, plan.Name, plan.DurationDays, plan.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
