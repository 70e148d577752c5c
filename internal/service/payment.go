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

	"github.com/mmeshcher/hotel-reservation-system/internal/clients/reservation"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

// PaymentStore описывает хранилище оплат.
// DeletePayment возвращает удалённую запись только одному из конкурентных вызывающих.
type PaymentStore interface {
	Close() error
	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, paymentUID string) (*model.Payment, error)
	ListPayments(ctx context.Context, page, perPage int) ([]model.Payment, error)
	DeletePayment(ctx context.Context, paymentUID string) (*model.Payment, error)
}

// ReservationClient описывает синхронные вызовы сервиса бронирований.
type ReservationClient interface {
	GetReservation(ctx context.Context, reservationUID string) (*reservation.Reservation, error)
}

// PaymentService ведёт оплаты бронирований.
type PaymentService struct {
	store        PaymentStore
	reservations ReservationClient
	loyalty      LoyaltyClient
	tracer       trace.Tracer
}

// NewPaymentService создаёт сервис оплат.
func NewPaymentService(store PaymentStore, reservations ReservationClient, loyalty LoyaltyClient) *PaymentService {
	return &PaymentService{
		store:        store,
		reservations: reservations,
		loyalty:      loyalty,
		tracer:       otel.Tracer("payment-service"),
	}
}

// Close закрывает хранилище.
func (s *PaymentService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// CreatePayment создаёт оплату бронирования. Статус оплаты снимается со статуса бронирования
// в момент создания и дальше не меняется.
func (s *PaymentService) CreatePayment(ctx context.Context, reservationID string, price *int) (*model.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "CreatePayment", trace.WithAttributes(attribute.String("reservation_id", reservationID)))
	defer span.End()

	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" || price == nil {
		return nil, validationError("reservation_id and price are required")
	}
	if *price < 0 {
		return nil, validationError("price must not be negative")
	}

	rsv, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	p := &model.Payment{
		PaymentUID:    uuid.NewString(),
		ReservationID: reservationID,
		Status:        model.DerivePaymentStatus(rsv.Status),
		Price:         *price,
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// GetPayment возвращает оплату по UID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentUID string) (*model.Payment, error) {
	return s.store.GetPayment(ctx, paymentUID)
}

// ListPayments возвращает страницу оплат в порядке создания.
func (s *PaymentService) ListPayments(ctx context.Context, page, perPage int) ([]model.Payment, error) {
	page, perPage = normalizePage(page, perPage)
	return s.store.ListPayments(ctx, page, perPage)
}

// DeletePayment удаляет оплату. Для оплаты в статусе PAID затем уменьшается счётчик лояльности
// пользователя username. Удаление фиксируется независимо от результата этого вызова:
// компенсация выполняется не более одного раза, без отката и без повторов.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentUID, username string) (*model.Payment, model.CompensationResult, error) {
	ctx, span := s.tracer.Start(ctx, "DeletePayment", trace.WithAttributes(attribute.String("payment_uid", paymentUID)))
	defer span.End()

	skipped := model.CompensationResult{Status: model.CompensationSkipped}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, skipped, validationError("X-User-Name header is required")
	}

	p, err := s.store.DeletePayment(ctx, paymentUID)
	if err != nil {
		return nil, skipped, err
	}

	if p.Status != model.PaymentStatusPaid {
		return p, skipped, nil
	}

	result := compensationResult(adjustReservationCount(ctx, s.loyalty, username, -1, nil))
	if result.Failed() {
		span.SetStatus(codes.Error, result.Err.Error())
	}

	return p, result, nil
}
