package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository"
)

// LoyaltyStore описывает хранилище счетов лояльности.
// UpdateLoyalty должен выполнять чтение и запись атомарно относительно других изменений того же пользователя.
type LoyaltyStore interface {
	Close() error
	CreateLoyalty(ctx context.Context, account model.LoyaltyAccount) (*model.LoyaltyAccount, error)
	GetLoyalty(ctx context.Context, username string) (*model.LoyaltyAccount, error)
	UpdateLoyalty(ctx context.Context, username string, fn func(*model.LoyaltyAccount) error) (*model.LoyaltyAccount, error)
}

// LoyaltyService ведёт счётчики бронирований и уровни лояльности. Исходящих вызовов не делает.
type LoyaltyService struct {
	store LoyaltyStore
}

// NewLoyaltyService создаёт сервис лояльности.
func NewLoyaltyService(store LoyaltyStore) *LoyaltyService {
	return &LoyaltyService{store: store}
}

// Close закрывает хранилище.
func (s *LoyaltyService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Register создаёт счёт пользователя с начальным количеством бронирований.
func (s *LoyaltyService) Register(ctx context.Context, username string, reservationCount int) (*model.LoyaltyAccount, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError("username is required")
	}
	if reservationCount < 0 {
		return nil, validationError("reservation_count must not be negative")
	}

	account, err := s.store.CreateLoyalty(ctx, model.NewLoyaltyAccount(username, reservationCount))
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Get возвращает текущее состояние счёта.
func (s *LoyaltyService) Get(ctx context.Context, username string) (*model.LoyaltyAccount, error) {
	return s.store.GetLoyalty(ctx, username)
}

// Adjust устанавливает счётчик бронирований в newCount и пересчитывает уровень.
// Если expected не nil, запись выполняется только при совпадении текущего счётчика с *expected.
func (s *LoyaltyService) Adjust(ctx context.Context, username string, newCount int, expected *int) (*model.LoyaltyAccount, error) {
	if newCount < 0 {
		return nil, validationError("reservation_count must not be negative, got %d", newCount)
	}

	return s.store.UpdateLoyalty(ctx, username, func(a *model.LoyaltyAccount) error {
		if expected != nil && a.ReservationCount != *expected {
			return fmt.Errorf("%w: expected %d, stored %d", repository.ErrCountConflict, *expected, a.ReservationCount)
		}
		a.SetReservationCount(newCount)
		return nil
	})
}
