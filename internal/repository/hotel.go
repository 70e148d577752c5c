package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

const hotelColumns = `id, hotel_uid, name, country, city, address, stars, price`

// CreateHotel добавляет отель в каталог и заполняет его идентификатор.
func (r *PostgresRepository) CreateHotel(ctx context.Context, h *model.Hotel) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO hotel (hotel_uid, name, country, city, address, stars, price)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		h.HotelUID, h.Name, h.Country, h.City, h.Address, h.Stars, h.Price,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("create hotel: %w", err)
	}
	return nil
}

// ListHotels возвращает страницу каталога отелей.
func (r *PostgresRepository) ListHotels(ctx context.Context, page, perPage int) ([]model.Hotel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+hotelColumns+` FROM hotel ORDER BY id LIMIT $1 OFFSET $2`,
		perPage, pageOffset(page, perPage),
	)
	if err != nil {
		return nil, fmt.Errorf("select hotels: %w", err)
	}
	defer rows.Close()

	hotels := make([]model.Hotel, 0, perPage)
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		hotels = append(hotels, *h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return hotels, nil
}

// GetHotelByUID возвращает отель по его UID.
func (r *PostgresRepository) GetHotelByUID(ctx context.Context, hotelUID string) (*model.Hotel, error) {
	return scanHotel(r.pool.QueryRow(ctx, `SELECT `+hotelColumns+` FROM hotel WHERE hotel_uid = $1`, hotelUID))
}

// GetHotelByID возвращает отель по числовому идентификатору.
func (r *PostgresRepository) GetHotelByID(ctx context.Context, id int64) (*model.Hotel, error) {
	return scanHotel(r.pool.QueryRow(ctx, `SELECT `+hotelColumns+` FROM hotel WHERE id = $1`, id))
}

// DeleteHotel удаляет отель из каталога.
func (r *PostgresRepository) DeleteHotel(ctx context.Context, hotelUID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hotel WHERE hotel_uid = $1`, hotelUID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", ErrHotelInUse, hotelUID)
		}
		return fmt.Errorf("delete hotel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHotelNotFound
	}
	return nil
}

func scanHotel(row pgx.Row) (*model.Hotel, error) {
	var (
		h     model.Hotel
		stars *int32
		price int32
	)
	if err := row.Scan(&h.ID, &h.HotelUID, &h.Name, &h.Country, &h.City, &h.Address, &stars, &price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHotelNotFound
		}
		return nil, fmt.Errorf("scan hotel: %w", err)
	}
	if stars != nil {
		v := int(*stars)
		h.Stars = &v
	}
	h.Price = int(price)
	return &h, nil
}
