package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
)

// HotelInput содержит поля нового отеля.
type HotelInput struct {
	Name    string
	Country string
	City    string
	Address string
	Stars   *int
	Price   *int
}

// CreateHotel добавляет отель в каталог.
func (s *ReservationService) CreateHotel(ctx context.Context, in HotelInput) (*model.Hotel, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Country) == "" ||
		strings.TrimSpace(in.City) == "" || strings.TrimSpace(in.Address) == "" || in.Price == nil {
		return nil, validationError("name, country, city, address and price are required")
	}
	if *in.Price < 0 {
		return nil, validationError("price must not be negative")
	}

	h := &model.Hotel{
		HotelUID: uuid.NewString(),
		Name:     in.Name,
		Country:  in.Country,
		City:     in.City,
		Address:  in.Address,
		Stars:    in.Stars,
		Price:    *in.Price,
	}
	if err := s.hotels.CreateHotel(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// ListHotels возвращает страницу каталога.
func (s *ReservationService) ListHotels(ctx context.Context, page, perPage int) ([]model.Hotel, error) {
	page, perPage = normalizePage(page, perPage)
	return s.hotels.ListHotels(ctx, page, perPage)
}

// GetHotel возвращает отель по UID.
func (s *ReservationService) GetHotel(ctx context.Context, hotelUID string) (*model.Hotel, error) {
	return s.hotels.GetHotelByUID(ctx, hotelUID)
}

// DeleteHotel удаляет отель из каталога.
func (s *ReservationService) DeleteHotel(ctx context.Context, hotelUID string) error {
	return s.hotels.DeleteHotel(ctx, hotelUID)
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
