package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository"
	"github.com/mmeshcher/hotel-reservation-system/internal/validation"
)

// ReservationStore описывает хранилище бронирований.
// UpdateReservation должен выполнять чтение и запись атомарно.
type ReservationStore interface {
	Close() error
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, reservationUID string) (*model.Reservation, error)
	ListReservationsByUser(ctx context.Context, username string) ([]model.Reservation, error)
	UpdateReservation(ctx context.Context, reservationUID string, fn func(*model.Reservation) error) (*model.Reservation, error)
	CountPaidReservations(ctx context.Context, username string) (int, error)
	ListReservationUsers(ctx context.Context) ([]string, error)
}

// HotelStore описывает каталог отелей.
type HotelStore interface {
	CreateHotel(ctx context.Context, h *model.Hotel) error
	ListHotels(ctx context.Context, page, perPage int) ([]model.Hotel, error)
	GetHotelByUID(ctx context.Context, hotelUID string) (*model.Hotel, error)
	GetHotelByID(ctx context.Context, id int64) (*model.Hotel, error)
	DeleteHotel(ctx context.Context, hotelUID string) error
}

// ReservationService управляет бронированиями и синхронно обновляет счётчик в сервисе лояльности.
type ReservationService struct {
	store   ReservationStore
	hotels  HotelStore
	loyalty LoyaltyClient
	tracer  trace.Tracer
}

// NewReservationService создаёт сервис бронирований.
func NewReservationService(store ReservationStore, hotels HotelStore, loyalty LoyaltyClient) *ReservationService {
	return &ReservationService{
		store:   store,
		hotels:  hotels,
		loyalty: loyalty,
		tracer:  otel.Tracer("reservation-service"),
	}
}

// Close закрывает хранилище.
func (s *ReservationService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// CreateReservationInput содержит параметры нового бронирования.
type CreateReservationInput struct {
	Username  string
	HotelID   *int64
	StartDate string
	EndDate   string
}

// CreateReservation создаёт бронирование в статусе PAID и увеличивает счётчик лояльности пользователя.
// Бронирование создаётся только для пользователя, зарегистрированного в программе лояльности.
// Если обновление счётчика не удалось, бронирование остаётся сохранённым, а ошибка возвращается
// в CompensationResult вместе с ним.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*model.Reservation, model.CompensationResult, error) {
	ctx, span := s.tracer.Start(ctx, "CreateReservation", trace.WithAttributes(attribute.String("username", in.Username)))
	defer span.End()

	skipped := model.CompensationResult{Status: model.CompensationSkipped}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, skipped, validationError("X-User-Name header is required")
	}
	if in.HotelID == nil || in.StartDate == "" || in.EndDate == "" {
		return nil, skipped, validationError("hotel_id, start_date and end_date are required")
	}
	start, end, err := validation.ParseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, skipped, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	account, err := s.loyalty.GetLoyalty(ctx, username)
	if err != nil {
		return nil, skipped, fmt.Errorf("get loyalty: %w", err)
	}

	hotel, err := s.hotels.GetHotelByID(ctx, *in.HotelID)
	if err != nil {
		return nil, skipped, err
	}

	rsv := &model.Reservation{
		ReservationUID: uuid.NewString(),
		Username:       username,
		HotelID:        hotel.ID,
		Hotel:          hotel,
		Status:         model.ReservationStatusPaid,
		StartDate:      start,
		EndDate:        end,
	}
	if err := s.store.CreateReservation(ctx, rsv); err != nil {
		return nil, skipped, err
	}
	span.SetAttributes(attribute.String("reservation_uid", rsv.ReservationUID))

	// Бронирование уже зафиксировано и не откатывается при ошибке ниже.
	result := compensationResult(adjustReservationCount(ctx, s.loyalty, username, 1, account))
	if result.Failed() {
		span.SetStatus(codes.Error, result.Err.Error())
	}

	return rsv, result, nil
}

// CancelReservation переводит бронирование в CANCELED и уменьшает счётчик лояльности, не опуская его ниже нуля.
// Отмена фиксируется до обращения к сервису лояльности; его ошибка возвращается в CompensationResult.
func (s *ReservationService) CancelReservation(ctx context.Context, reservationUID string) (*model.Reservation, model.CompensationResult, error) {
	ctx, span := s.tracer.Start(ctx, "CancelReservation", trace.WithAttributes(attribute.String("reservation_uid", reservationUID)))
	defer span.End()

	rsv, err := s.store.UpdateReservation(ctx, reservationUID, func(r *model.Reservation) error {
		if r.Status == model.ReservationStatusCanceled {
			return fmt.Errorf("%w: %s", repository.ErrReservationCanceled, r.ReservationUID)
		}
		r.Status = model.ReservationStatusCanceled
		return nil
	})
	if err != nil {
		return nil, model.CompensationResult{Status: model.CompensationSkipped}, err
	}

	result := compensationResult(adjustReservationCount(ctx, s.loyalty, rsv.Username, -1, nil))
	if result.Failed() {
		span.SetStatus(codes.Error, result.Err.Error())
	}

	return rsv, result, nil
}

// GetReservation возвращает бронирование по UID.
func (s *ReservationService) GetReservation(ctx context.Context, reservationUID string) (*model.Reservation, error) {
	return s.store.GetReservation(ctx, reservationUID)
}

// ListReservationsByUser возвращает бронирования пользователя.
func (s *ReservationService) ListReservationsByUser(ctx context.Context, username string) ([]model.Reservation, error) {
	if strings.TrimSpace(username) == "" {
		return nil, validationError("X-User-Name header is required")
	}
	return s.store.ListReservationsByUser(ctx, username)
}

// UpdateReservationStatus меняет статус бронирования без изменения счётчика лояльности.
// CANCELED является конечным статусом: вернуть бронирование в PAID нельзя.
func (s *ReservationService) UpdateReservationStatus(ctx context.Context, reservationUID, status string) (*model.Reservation, error) {
	newStatus, err := validation.ParseReservationStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return s.store.UpdateReservation(ctx, reservationUID, func(r *model.Reservation) error {
		if r.Status == model.ReservationStatusCanceled && newStatus != model.ReservationStatusCanceled {
			return fmt.Errorf("%w: %s", repository.ErrReservationCanceled, r.ReservationUID)
		}
		r.Status = newStatus
		return nil
	})
}
