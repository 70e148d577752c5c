package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

const reservationSelect = `SELECT r.id, r.reservation_uid, r.username, r.hotel_id, r.status, r.start_date, r.end_date,
	h.id, h.hotel_uid, h.name, h.country, h.city, h.address, h.stars, h.price
	FROM reservation r JOIN hotel h ON h.id = r.hotel_id`

// CreateReservation сохраняет новое бронирование и заполняет его идентификатор.
func (r *PostgresRepository) CreateReservation(ctx context.Context, res *model.Reservation) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reservation (reservation_uid, username, hotel_id, status, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		res.ReservationUID, res.Username, res.HotelID, string(res.Status), res.StartDate, res.EndDate,
	).Scan(&res.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %d", ErrHotelNotFound, res.HotelID)
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetReservation возвращает бронирование по UID вместе с данными отеля.
func (r *PostgresRepository) GetReservation(ctx context.Context, reservationUID string) (*model.Reservation, error) {
	return scanReservation(r.pool.QueryRow(ctx, reservationSelect+` WHERE r.reservation_uid = $1`, reservationUID))
}

// ListReservationsByUser возвращает бронирования пользователя в порядке создания.
func (r *PostgresRepository) ListReservationsByUser(ctx context.Context, username string) ([]model.Reservation, error) {
	rows, err := r.pool.Query(ctx, reservationSelect+` WHERE r.username = $1 ORDER BY r.id`, username)
	if err != nil {
		return nil, fmt.Errorf("select reservations: %w", err)
	}
	defer rows.Close()

	var res []model.Reservation
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *rsv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateReservation атомарно читает и изменяет бронирование под блокировкой строки.
func (r *PostgresRepository) UpdateReservation(ctx context.Context, reservationUID string, fn func(*model.Reservation) error) (*model.Reservation, error) {
	var updated *model.Reservation

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		rsv, err := scanReservation(tx.QueryRow(ctx,
			reservationSelect+` WHERE r.reservation_uid = $1 FOR UPDATE OF r`, reservationUID))
		if err != nil {
			return err
		}

		if err := fn(rsv); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE reservation SET status = $2 WHERE id = $1`, rsv.ID, string(rsv.Status))
		if err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		updated = rsv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// CountPaidReservations возвращает число бронирований пользователя в статусе PAID.
func (r *PostgresRepository) CountPaidReservations(ctx context.Context, username string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservation WHERE username = $1 AND status = $2`,
		username, string(model.ReservationStatusPaid),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

// ListReservationUsers возвращает имена всех пользователей, у которых есть бронирования.
func (r *PostgresRepository) ListReservationUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT username FROM reservation ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("select reservation users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var (
		rsv        model.Reservation
		h          model.Hotel
		status     string
		start, end time.Time
		stars      *int32
		price      int32
	)
	err := row.Scan(
		&rsv.ID, &rsv.ReservationUID, &rsv.Username, &rsv.HotelID, &status, &start, &end,
		&h.ID, &h.HotelUID, &h.Name, &h.Country, &h.City, &h.Address, &stars, &price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}

	if stars != nil {
		v := int(*stars)
		h.Stars = &v
	}
	h.Price = int(price)

	rsv.Status = model.ReservationStatus(status)
	rsv.StartDate = start.UTC()
	rsv.EndDate = end.UTC()
	rsv.Hotel = &h
	return &rsv, nil
}
