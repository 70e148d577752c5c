// Package handler содержит HTTP-обработчики сервисов лояльности, оплат и бронирований.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotel-reservation-system/internal/clients"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository"
	"github.com/mmeshcher/hotel-reservation-system/internal/service"
)

type messageResponse struct {
	Message string `json:"message"`
}

type compensationResponse struct {
	Message      string                   `json:"message"`
	Compensation model.CompensationStatus `json:"compensation"`
}

// usernameParam возвращает имя пользователя из пути. Если у запроса есть RawPath (например, имя
// содержит %2F), chi сопоставляет маршрут по нему и параметр приходит экранированным.
func usernameParam(r *http.Request) string {
	raw := chi.URLParam(r, "username")
	if r.URL.RawPath == "" {
		return raw
	}
	if username, err := url.PathUnescape(raw); err == nil {
		return username
	}
	return raw
}

// compensationStatus возвращает код ответа для зафиксированной операции, компенсация которой
// не удалась: код ответа сервиса лояльности или 500, если ответ не получен.
func compensationStatus(result model.CompensationResult) int {
	return upstreamStatus(result.Err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// errorStatus переводит ошибку сервиса в код ответа.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrLoyaltyNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrHotelNotFound),
		errors.Is(err, repository.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrLoyaltyExists),
		errors.Is(err, repository.ErrCountConflict),
		errors.Is(err, repository.ErrReservationCanceled),
		errors.Is(err, repository.ErrHotelInUse):
		return http.StatusConflict
	}

	return upstreamStatus(err)
}

// upstreamStatus возвращает код ответа другого сервиса, если он является кодом ошибки, иначе 500.
func upstreamStatus(err error) int {
	if code := clients.StatusCode(err); code >= http.StatusBadRequest && code < 600 {
		return code
	}
	return http.StatusInternalServerError
}

// writeError отвечает кодом, соответствующим ошибке. Внутренние ошибки логируются, а их текст
// клиенту не передаётся.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error, fields ...zap.Field) {
	status := errorStatus(err)

	var upErr *clients.UpstreamError
	switch {
	case errors.As(err, &upErr):
		logger.Warn(op+" upstream error", append(fields, zap.Error(err))...)
	case status >= http.StatusInternalServerError:
		logger.Error(op+" error", append(fields, zap.Error(err))...)
		writeMessage(w, status, http.StatusText(status))
		return
	}

	writeMessage(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", service.ErrValidation)
	}
	return nil
}

// pageParams читает параметры page и per_page. Отсутствующие или некорректные значения
// заменяются значениями по умолчанию на уровне сервиса.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

// TestRoute отвечает на проверочный запрос GET /test.
func TestRoute(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "test route")
}
