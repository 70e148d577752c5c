package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

// CreateLoyalty регистрирует счёт лояльности. Уровень и скидка берутся из переданного счёта.
func (r *PostgresRepository) CreateLoyalty(ctx context.Context, account model.LoyaltyAccount) (*model.LoyaltyAccount, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO loyalty (username, reservation_count, status, discount) VALUES ($1, $2, $3, $4) RETURNING id`,
		account.Username, account.ReservationCount, string(account.Status), account.Discount,
	).Scan(&account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrLoyaltyExists, account.Username)
		}
		return nil, fmt.Errorf("create loyalty: %w", err)
	}
	return &account, nil
}

// GetLoyalty возвращает счёт лояльности пользователя.
func (r *PostgresRepository) GetLoyalty(ctx context.Context, username string) (*model.LoyaltyAccount, error) {
	account, err := scanLoyalty(r.pool.QueryRow(ctx,
		`SELECT id, username, reservation_count, status, discount FROM loyalty WHERE username = $1`,
		username,
	))
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateLoyalty атомарно читает и изменяет счёт пользователя. Строка блокируется на время вызова fn,
// поэтому параллельные изменения одного пользователя выполняются последовательно.
func (r *PostgresRepository) UpdateLoyalty(ctx context.Context, username string, fn func(*model.LoyaltyAccount) error) (*model.LoyaltyAccount, error) {
	var updated *model.LoyaltyAccount

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		account, err := scanLoyalty(tx.QueryRow(ctx,
			`SELECT id, username, reservation_count, status, discount FROM loyalty WHERE username = $1 FOR UPDATE`,
			username,
		))
		if err != nil {
			return err
		}

		if err := fn(account); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE loyalty SET reservation_count = $2, status = $3, discount = $4 WHERE id = $1`,
			account.ID, account.ReservationCount, string(account.Status), account.Discount,
		)
		if err != nil {
			return fmt.Errorf("update loyalty: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func scanLoyalty(row pgx.Row) (*model.LoyaltyAccount, error) {
	var (
		a      model.LoyaltyAccount
		status string
	)
	if err := row.Scan(&a.ID, &a.Username, &a.ReservationCount, &status, &a.Discount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoyaltyNotFound
		}
		return nil, fmt.Errorf("scan loyalty: %w", err)
	}
	a.Status = model.Tier(status)
	return &a, nil
}
