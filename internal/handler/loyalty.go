package handler

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

// LoyaltyService определяет операции сервиса лояльности, используемые HTTP-обработчиками.
type LoyaltyService interface {
	Register(ctx context.Context, username string, reservationCount int) (*model.LoyaltyAccount, error)
	Get(ctx context.Context, username string) (*model.LoyaltyAccount, error)
	Adjust(ctx context.Context, username string, newCount int, expected *int) (*model.LoyaltyAccount, error)
}

// LoyaltyHandler реализует HTTP API сервиса лояльности.
type LoyaltyHandler struct {
	service LoyaltyService
	logger  *zap.Logger
}

// NewLoyaltyHandler создаёт обработчик запросов сервиса лояльности.
func NewLoyaltyHandler(s LoyaltyService, logger *zap.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{service: s, logger: logger}
}

type createLoyaltyRequest struct {
	Username         *string `json:"username"`
	ReservationCount *int    `json:"reservation_count"`
	Status           *string `json:"status"`
	Discount         *int    `json:"discount"`
}

// CreateLoyalty регистрирует пользователя в программе лояльности.
// Уровень и скидка вычисляются из reservation_count, переданные значения только проверяются на наличие.
func (h *LoyaltyHandler) CreateLoyalty(w http.ResponseWriter, r *http.Request) {
	var req createLoyaltyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "create loyalty", err)
		return
	}

	if req.Username == nil || req.ReservationCount == nil || req.Status == nil || req.Discount == nil {
		writeMessage(w, http.StatusBadRequest, "username, reservation_count, status and discount are required")
		return
	}

	account, err := h.service.Register(r.Context(), *req.Username, *req.ReservationCount)
	if err != nil {
		writeError(w, h.logger, "create loyalty", err, zap.String("username", *req.Username))
		return
	}

	writeMessage(w, http.StatusCreated, fmt.Sprintf("User %s created successfully", account.Username))
}

// GetLoyalty возвращает счёт пользователя.
func (h *LoyaltyHandler) GetLoyalty(w http.ResponseWriter, r *http.Request) {
	username := usernameParam(r)

	account, err := h.service.Get(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, "get loyalty", err, zap.String("username", username))
		return
	}

	writeJSON(w, http.StatusOK, account)
}

type adjustLoyaltyRequest struct {
	ReservationCount *int `json:"reservation_count"`
	ExpectedCount    *int `json:"expected_count"`
}

// AdjustLoyalty устанавливает счётчик бронирований пользователя.
// Если передан expected_count, запись выполняется только при совпадении с текущим значением.
func (h *LoyaltyHandler) AdjustLoyalty(w http.ResponseWriter, r *http.Request) {
	username := usernameParam(r)

	var req adjustLoyaltyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "adjust loyalty", err)
		return
	}

	if req.ReservationCount == nil {
		writeMessage(w, http.StatusBadRequest, "reservation_count is required")
		return
	}

	if _, err := h.service.Adjust(r.Context(), username, *req.ReservationCount, req.ExpectedCount); err != nil {
		writeError(w, h.logger, "adjust loyalty", err, zap.String("username", username))
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("User %s updated successfully", username))
}
