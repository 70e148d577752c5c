// Package service реализует протокол согласования бронирований, оплат и программы лояльности.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mmeshcher/hotel-reservation-system/internal/clients"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

// maxAdjustAttempts ограничивает число циклов чтение-запись при конкурентном изменении счётчика.
const maxAdjustAttempts = 5

var (
	// ErrValidation возвращается для отсутствующих или некорректных входных данных.
	ErrValidation = errors.New("validation error")
	// ErrAdjustContention возвращается, если счётчик лояльности менялся конкурентно на каждой попытке.
	ErrAdjustContention = errors.New("loyalty count contention")
)

// LoyaltyClient описывает синхронные вызовы сервиса лояльности.
type LoyaltyClient interface {
	GetLoyalty(ctx context.Context, username string) (*model.LoyaltyAccount, error)
	AdjustLoyalty(ctx context.Context, username string, newCount int, expected *int) error
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// adjustReservationCount изменяет счётчик бронирований пользователя на delta, не опуская его ниже нуля.
// Запись выполняется как compare-and-swap относительно прочитанного значения: при ответе 409 счёт
// перечитывается и запись повторяется. Прочие ошибки возвращаются без повторов.
// snapshot, если задан, используется вместо первого чтения.
func adjustReservationCount(ctx context.Context, client LoyaltyClient, username string, delta int, snapshot *model.LoyaltyAccount) error {
	for attempt := 0; attempt < maxAdjustAttempts; attempt++ {
		if snapshot == nil {
			account, err := client.GetLoyalty(ctx, username)
			if err != nil {
				return fmt.Errorf("get loyalty: %w", err)
			}
			snapshot = account
		}

		current := snapshot.ReservationCount
		next := max(0, current+delta)

		err := client.AdjustLoyalty(ctx, username, next, &current)
		if err == nil {
			return nil
		}
		if !clients.IsStatus(err, http.StatusConflict) {
			return fmt.Errorf("adjust loyalty: %w", err)
		}
		snapshot = nil
	}

	return fmt.Errorf("%w: %s", ErrAdjustContention, username)
}

func compensationResult(err error) model.CompensationResult {
	if err != nil {
		return model.CompensationResult{Status: model.CompensationFailed, Err: err}
	}
	return model.CompensationResult{Status: model.CompensationSucceeded}
}
