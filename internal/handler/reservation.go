package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotel-reservation-system/internal/middleware"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/service"
	"github.com/mmeshcher/hotel-reservation-system/internal/validation"
)

// ReservationService определяет операции сервиса бронирований, используемые HTTP-обработчиками.
type ReservationService interface {
	CreateReservation(ctx context.Context, in service.CreateReservationInput) (*model.Reservation, model.CompensationResult, error)
	CancelReservation(ctx context.Context, reservationUID string) (*model.Reservation, model.CompensationResult, error)
	GetReservation(ctx context.Context, reservationUID string) (*model.Reservation, error)
	ListReservationsByUser(ctx context.Context, username string) ([]model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationUID, status string) (*model.Reservation, error)
	Reconcile(ctx context.Context, username string) (*model.ReconciliationReport, error)

	CreateHotel(ctx context.Context, in service.HotelInput) (*model.Hotel, error)
	ListHotels(ctx context.Context, page, perPage int) ([]model.Hotel, error)
	GetHotel(ctx context.Context, hotelUID string) (*model.Hotel, error)
	DeleteHotel(ctx context.Context, hotelUID string) error
}

// ReservationHandler реализует HTTP API сервиса бронирований.
type ReservationHandler struct {
	service ReservationService
	logger  *zap.Logger
	keys    middleware.KeyStore
}

// NewReservationHandler создаёт обработчик запросов сервиса бронирований.
// keys может быть nil: тогда заголовок Idempotency-Key не проверяется.
func NewReservationHandler(s ReservationService, logger *zap.Logger, keys middleware.KeyStore) *ReservationHandler {
	return &ReservationHandler{service: s, logger: logger, keys: keys}
}

type reservationResponse struct {
	ID             int64                   `json:"id"`
	ReservationUID string                  `json:"reservation_uid"`
	Username       string                  `json:"username"`
	HotelID        int64                   `json:"hotel_id"`
	Hotel          *model.Hotel            `json:"hotel"`
	Status         model.ReservationStatus `json:"status"`
	StartDate      string                  `json:"start_date"`
	EndDate        string                  `json:"end_date"`
}

func newReservationResponse(r *model.Reservation) reservationResponse {
	return reservationResponse{
		ID:             r.ID,
		ReservationUID: r.ReservationUID,
		Username:       r.Username,
		HotelID:        r.HotelID,
		Hotel:          r.Hotel,
		Status:         r.Status,
		StartDate:      r.StartDate.Format(validation.DateLayout),
		EndDate:        r.EndDate.Format(validation.DateLayout),
	}
}

type createReservationRequest struct {
	HotelID   *int64 `json:"hotel_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type createReservationFailedResponse struct {
	compensationResponse
	Reservation reservationResponse `json:"reservation"`
}

// CreateReservation создаёт бронирование для пользователя из заголовка X-User-Name.
// Если бронирование сохранено, но счётчик лояльности обновить не удалось, клиент получает
// код ответа сервиса лояльности вместе с созданным бронированием.
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUserNameFromContext(r.Context())

	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "create reservation", err)
		return
	}

	rsv, result, err := h.service.CreateReservation(r.Context(), service.CreateReservationInput{
		Username:  username,
		HotelID:   req.HotelID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeError(w, h.logger, "create reservation", err, zap.String("username", username))
		return
	}

	if result.Failed() {
		h.logger.Warn("loyalty compensation failed",
			zap.String("reservation_uid", rsv.ReservationUID),
			zap.String("username", username),
			zap.Error(result.Err),
		)
		writeJSON(w, compensationStatus(result), createReservationFailedResponse{
			compensationResponse: compensationResponse{
				Message:      "Error updating loyalty data",
				Compensation: result.Status,
			},
			Reservation: newReservationResponse(rsv),
		})
		return
	}

	writeJSON(w, http.StatusCreated, newReservationResponse(rsv))
}

type reservationsResponse struct {
	Reservations []reservationResponse `json:"reservations"`
}

// ListReservations возвращает бронирования пользователя из заголовка X-User-Name.
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUserNameFromContext(r.Context())

	list, err := h.service.ListReservationsByUser(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, "list reservations", err, zap.String("username", username))
		return
	}

	resp := reservationsResponse{Reservations: make([]reservationResponse, 0, len(list))}
	for i := range list {
		resp.Reservations = append(resp.Reservations, newReservationResponse(&list[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetReservation возвращает бронирование по UID.
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "reservationUID")

	rsv, err := h.service.GetReservation(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, "get reservation", err, zap.String("reservation_uid", uid))
		return
	}

	writeJSON(w, http.StatusOK, newReservationResponse(rsv))
}

type cancelReservationFailedResponse struct {
	compensationResponse
	ReservationCanceled bool `json:"reservation_canceled"`
}

// CancelReservation отменяет бронирование и уменьшает счётчик лояльности владельца.
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "reservationUID")

	rsv, result, err := h.service.CancelReservation(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, "cancel reservation", err, zap.String("reservation_uid", uid))
		return
	}

	if result.Failed() {
		h.logger.Warn("loyalty compensation failed",
			zap.String("reservation_uid", uid),
			zap.String("username", rsv.Username),
			zap.Error(result.Err),
		)
		writeJSON(w, compensationStatus(result), cancelReservationFailedResponse{
			compensationResponse: compensationResponse{
				Message:      "Reservation canceled, error updating loyalty data",
				Compensation: result.Status,
			},
			ReservationCanceled: true,
		})
		return
	}

	writeJSON(w, http.StatusOK, compensationResponse{
		Message:      "Reservation canceled successfully!",
		Compensation: result.Status,
	})
}

type updateStatusRequest struct {
	Status *string `json:"status"`
}

// UpdateReservationStatus меняет статус бронирования. Счётчик лояльности при этом не меняется.
func (h *ReservationHandler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "reservationUID")

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "update reservation status", err)
		return
	}

	if req.Status == nil {
		writeMessage(w, http.StatusBadRequest, "Status field is required!")
		return
	}

	rsv, err := h.service.UpdateReservationStatus(r.Context(), uid, *req.Status)
	if err != nil {
		writeError(w, h.logger, "update reservation status", err, zap.String("reservation_uid", uid))
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("Reservation status updated to %s!", rsv.Status))
}

// Reconcile возвращает отчёт о расхождении счётчика лояльности с оплаченными бронированиями.
func (h *ReservationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	username := usernameParam(r)

	report, err := h.service.Reconcile(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, "reconcile", err, zap.String("username", username))
		return
	}

	writeJSON(w, http.StatusOK, report)
}
