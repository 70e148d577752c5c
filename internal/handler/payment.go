package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotel-reservation-system/internal/middleware"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

// PaymentService определяет операции сервиса оплат, используемые HTTP-обработчиками.
type PaymentService interface {
	CreatePayment(ctx context.Context, reservationID string, price *int) (*model.Payment, error)
	GetPayment(ctx context.Context, paymentUID string) (*model.Payment, error)
	ListPayments(ctx context.Context, page, perPage int) ([]model.Payment, error)
	DeletePayment(ctx context.Context, paymentUID, username string) (*model.Payment, model.CompensationResult, error)
}

// PaymentHandler реализует HTTP API сервиса оплат.
type PaymentHandler struct {
	service PaymentService
	logger  *zap.Logger
	keys    middleware.KeyStore
}

// NewPaymentHandler создаёт обработчик запросов сервиса оплат.
// keys может быть nil: тогда заголовок Idempotency-Key не проверяется.
func NewPaymentHandler(s PaymentService, logger *zap.Logger, keys middleware.KeyStore) *PaymentHandler {
	return &PaymentHandler{service: s, logger: logger, keys: keys}
}

type createPaymentRequest struct {
	ReservationID *string `json:"reservation_id"`
	Price         *int    `json:"price"`
}

type createPaymentResponse struct {
	Message    string `json:"message"`
	PaymentUID string `json:"payment_uid"`
}

// CreatePayment создаёт оплату бронирования.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "create payment", err)
		return
	}

	if req.ReservationID == nil || req.Price == nil {
		writeMessage(w, http.StatusBadRequest, "reservation_id and price are required")
		return
	}

	p, err := h.service.CreatePayment(r.Context(), *req.ReservationID, req.Price)
	if err != nil {
		writeError(w, h.logger, "create payment", err, zap.String("reservation_id", *req.ReservationID))
		return
	}

	writeJSON(w, http.StatusCreated, createPaymentResponse{
		Message:    "Payment created successfully!",
		PaymentUID: p.PaymentUID,
	})
}

// GetPayment возвращает оплату по UID.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "paymentUID")

	p, err := h.service.GetPayment(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, "get payment", err, zap.String("payment_uid", uid))
		return
	}

	writeJSON(w, http.StatusOK, p)
}

type paymentsResponse struct {
	Payments []model.Payment `json:"payments"`
}

// ListPayments возвращает страницу оплат.
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)

	payments, err := h.service.ListPayments(r.Context(), page, perPage)
	if err != nil {
		writeError(w, h.logger, "list payments", err)
		return
	}

	if payments == nil {
		payments = []model.Payment{}
	}

	writeJSON(w, http.StatusOK, paymentsResponse{Payments: payments})
}

type deletePaymentFailedResponse struct {
	compensationResponse
	PaymentDeleted bool `json:"payment_deleted"`
}

// DeletePayment удаляет оплату и, для оплаты в статусе PAID, уменьшает счётчик лояльности
// пользователя из заголовка X-User-Name. Если сервис лояльности ответил ошибкой, её код
// возвращается клиенту, хотя оплата уже удалена.
func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "paymentUID")
	username, _ := middleware.GetUserNameFromContext(r.Context())

	_, result, err := h.service.DeletePayment(r.Context(), uid, username)
	if err != nil {
		writeError(w, h.logger, "delete payment", err, zap.String("payment_uid", uid))
		return
	}

	if result.Failed() {
		h.logger.Warn("loyalty compensation failed",
			zap.String("payment_uid", uid),
			zap.String("username", username),
			zap.Error(result.Err),
		)
		writeJSON(w, compensationStatus(result), deletePaymentFailedResponse{
			compensationResponse: compensationResponse{
				Message:      "Payment deleted, error updating loyalty data",
				Compensation: result.Status,
			},
			PaymentDeleted: true,
		})
		return
	}

	writeJSON(w, http.StatusOK, compensationResponse{
		Message:      "Payment deleted successfully!",
		Compensation: result.Status,
	})
}
