package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/mmeshcher/hotel-reservation-system/internal/clients"
	"github.com/mmeshcher/hotel-reservation-system/internal/clients/reservation"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository"
)

// ledgerClient вызывает LoyaltyService в том же процессе и переводит ошибки в коды ответа, как HTTP-клиент.
type ledgerClient struct {
	svc *LoyaltyService

	mu          sync.Mutex
	adjustCalls int
	failAdjust  error
}

func (c *ledgerClient) GetLoyalty(ctx context.Context, username string) (*model.LoyaltyAccount, error) {
	a, err := c.svc.Get(ctx, username)
	return a, asUpstream(err)
}

func (c *ledgerClient) AdjustLoyalty(ctx context.Context, username string, newCount int, expected *int) error {
	c.mu.Lock()
	c.adjustCalls++
	fail := c.failAdjust
	c.mu.Unlock()

	if fail != nil {
		return fail
	}
	_, err := c.svc.Adjust(ctx, username, newCount, expected)
	return asUpstream(err)
}

func (c *ledgerClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adjustCalls
}

func asUpstream(err error) error {
	if err == nil {
		return nil
	}
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrLoyaltyNotFound):
		code = http.StatusNotFound
	case errors.Is(err, repository.ErrCountConflict):
		code = http.StatusConflict
	case errors.Is(err, ErrValidation):
		code = http.StatusBadRequest
	}
	return &clients.UpstreamError{Service: "loyalty", StatusCode: code, Message: err.Error()}
}

// reservationLookup отдаёт бронирования ReservationService так же, как HTTP-клиент сервиса бронирований.
type reservationLookup struct {
	svc *ReservationService
}

func (l *reservationLookup) GetReservation(ctx context.Context, reservationUID string) (*reservation.Reservation, error) {
	r, err := l.svc.GetReservation(ctx, reservationUID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, &clients.UpstreamError{Service: "reservation", StatusCode: http.StatusNotFound}
		}
		return nil, err
	}
	return &reservation.Reservation{ReservationUID: r.ReservationUID, Username: r.Username, Status: r.Status}, nil
}

func ptr[T any](v T) *T {
	return &v
}
