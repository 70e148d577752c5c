// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

// DateLayout задаёт формат дат в запросах: YYYY-MM-DD.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidDate возвращается, если дата не соответствует формату YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidDateRange возвращается, если дата начала не раньше даты окончания.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrInvalidStatus возвращается для статуса бронирования вне {PAID, CANCELED}.
	ErrInvalidStatus = errors.New("invalid status")
)

// ParseDate разбирает дату строго в формате YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if len(value) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// ParseDateRange разбирает пару дат и проверяет, что start строго раньше end.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return s, e, nil
}

// ParseReservationStatus проверяет, что статус входит в множество {PAID, CANCELED}.
func ParseReservationStatus(value string) (model.ReservationStatus, error) {
	status := model.ReservationStatus(strings.TrimSpace(value))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q, must be one of [%s %s]",
			ErrInvalidStatus, value, model.ReservationStatusPaid, model.ReservationStatusCanceled)
	}
	return status, nil
}
