// Package model содержит доменные сущности сервисов бронирования отелей.
package model

import "time"

// Tier описывает уровень программы лояльности.
type Tier string

const (
	TierUndefined Tier = "UNDEFINED"
	TierBronze    Tier = "BRONZE"
	TierSilver    Tier = "SILVER"
	TierGold      Tier = "GOLD"
)

// LoyaltyAccount описывает счёт пользователя в программе лояльности.
// Tier и Discount всегда вычисляются из ReservationCount.
type LoyaltyAccount struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	ReservationCount int    `json:"reservation_count"`
	Status           Tier   `json:"status"`
	Discount         int    `json:"discount"`
}

// NewLoyaltyAccount создаёт счёт с уровнем, пересчитанным из количества бронирований.
func NewLoyaltyAccount(username string, count int) LoyaltyAccount {
	a := LoyaltyAccount{Username: username}
	a.SetReservationCount(count)
	return a
}

// SetReservationCount устанавливает количество бронирований и пересчитывает уровень и скидку.
func (a *LoyaltyAccount) SetReservationCount(count int) {
	a.ReservationCount = count
	a.Status, a.Discount = DeriveTier(count)
}

// DeriveTier возвращает уровень лояльности и процент скидки для количества бронирований.
func DeriveTier(count int) (Tier, int) {
	switch {
	case count >= 20:
		return TierGold, 10
	case count >= 15:
		return TierSilver, 7
	case count >= 10:
		return TierBronze, 5
	default:
		return TierUndefined, 0
	}
}

// ReservationStatus описывает статус бронирования.
type ReservationStatus string

const (
	ReservationStatusPaid     ReservationStatus = "PAID"
	ReservationStatusCanceled ReservationStatus = "CANCELED"
)

// Valid сообщает, является ли статус допустимым значением.
func (s ReservationStatus) Valid() bool {
	return s == ReservationStatusPaid || s == ReservationStatusCanceled
}

// Hotel описывает отель из каталога сервиса бронирований.
type Hotel struct {
	ID       int64  `json:"id"`
	HotelUID string `json:"hotel_uid"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Address  string `json:"address"`
	Stars    *int   `json:"stars"`
	Price    int    `json:"price"`
}

// Reservation описывает бронирование отеля пользователем.
type Reservation struct {
	ID             int64
	ReservationUID string
	Username       string
	HotelID        int64
	Hotel          *Hotel
	Status         ReservationStatus
	StartDate      time.Time
	EndDate        time.Time
}

// PaymentStatus описывает статус оплаты.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPending PaymentStatus = "PENDING"
)

// Payment описывает оплату бронирования.
// Status фиксируется один раз при создании и не синхронизируется с бронированием.
type Payment struct {
	ID            int64         `json:"id"`
	PaymentUID    string        `json:"payment_uid"`
	ReservationID string        `json:"reservation_id"`
	Status        PaymentStatus `json:"status"`
	Price         int           `json:"price"`
}

// DerivePaymentStatus проецирует статус бронирования на статус оплаты в момент создания оплаты.
// Результат не пересчитывается при последующих изменениях бронирования.
func DerivePaymentStatus(reservation ReservationStatus) PaymentStatus {
	if reservation == ReservationStatusPaid {
		return PaymentStatusPaid
	}
	return PaymentStatusPending
}

// CompensationStatus описывает исход компенсирующего вызова в сервис лояльности.
type CompensationStatus string

const (
	CompensationSkipped   CompensationStatus = "skipped"
	CompensationSucceeded CompensationStatus = "succeeded"
	CompensationFailed    CompensationStatus = "failed"
)

// CompensationResult возвращается вместе с результатом основной операции.
// Ошибка компенсации не отменяет уже зафиксированную основную операцию.
type CompensationResult struct {
	Status CompensationStatus
	Err    error
}

// Failed сообщает, завершилась ли компенсация ошибкой.
func (c CompensationResult) Failed() bool {
	return c.Status == CompensationFailed
}

// ReconciliationReport сравнивает счётчик лояльности с числом оплаченных бронирований пользователя.
type ReconciliationReport struct {
	Username         string `json:"username"`
	LoyaltyCount     int    `json:"loyalty_count"`
	PaidReservations int    `json:"paid_reservations"`
	Drift            int    `json:"drift"`
}
