// Package repository реализует хранилище данных на основе PostgreSQL
// для пользователей, тарифных планов, платежей и подписок. Многошаговые
// переходы состояний выполняются в одной транзакции с блокировкой строк,
// чтобы решения администраторов и фоновая проверка истечений сериализовались.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки уровня хранилища. Сервисный слой транслирует их в свои типизированные
// ошибки для ответа вызывающей стороне.
var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyDecided       = errors.New("payment already decided")
	ErrNoActiveSubscription = errors.New("no active subscription")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// runInTx выполняет fn внутри одной транзакции: фиксирует её при nil-результате
// и откатывает при ошибке. Ошибки хранилища (ErrAlreadyDecided и пр.)
// проходят наружу без изменений.
func (s *Storage) runInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
