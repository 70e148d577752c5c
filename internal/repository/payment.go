package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

const paymentColumns = `id, payment_uid, reservation_id, status, price`

// CreatePayment сохраняет оплату и заполняет её идентификатор.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payment (payment_uid, reservation_id, status, price) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.PaymentUID, p.ReservationID, string(p.Status), p.Price,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetPayment возвращает оплату по UID.
func (r *PostgresRepository) GetPayment(ctx context.Context, paymentUID string) (*model.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment WHERE payment_uid = $1`, paymentUID))
}

// ListPayments возвращает страницу оплат в порядке создания.
func (r *PostgresRepository) ListPayments(ctx context.Context, page, perPage int) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payment ORDER BY id LIMIT $1 OFFSET $2`,
		perPage, pageOffset(page, perPage),
	)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	payments := make([]model.Payment, 0, perPage)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return payments, nil
}

// DeletePayment удаляет оплату и возвращает удалённую запись.
// При параллельном удалении запись получает только один вызывающий.
func (r *PostgresRepository) DeletePayment(ctx context.Context, paymentUID string) (*model.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx,
		`DELETE FROM payment WHERE payment_uid = $1 RETURNING `+paymentColumns, paymentUID))
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		status string
		price  int32
	)
	if err := row.Scan(&p.ID, &p.PaymentUID, &p.ReservationID, &status, &price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.Status = model.PaymentStatus(status)
	p.Price = int(price)
	return &p, nil
}
