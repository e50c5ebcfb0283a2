package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
)

// UpsertUser сохраняет пользователя при первом контакте. Повторная
// регистрация уже известного пользователя ничего не меняет.
func (s *Storage) UpsertUser(ctx context.Context, user models.User) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (user_id, uid, display_name, status)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query,
		user.UserID, user.UID, user.DisplayName, user.Status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его telegram-идентификатору.
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, uid, display_name, status, selected_plan_id
			  FROM users
			  WHERE user_id = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userID)

	var selectedPlanID sql.NullString
	if err := row.Scan(&u.UserID, &u.UID, &u.DisplayName, &u.Status, &selectedPlanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if selectedPlanID.Valid {
		u.SelectedPlanID = &selectedPlanID.String
	}
	return u, nil
}

// SetSelectedPlan запоминает выбранный план пользователя, перезаписывая
// прежний неоплаченный выбор. Прошлые платежи при этом не затрагиваются.
func (s *Storage) SetSelectedPlan(ctx context.Context, userID int64, planID string) error {
	const op = "storage.SetSelectedPlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET selected_plan_id = $1
			  WHERE user_id = $2`
	result, err := s.DB.ExecContext(ctx, query, planID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
