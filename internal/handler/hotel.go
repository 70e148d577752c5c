package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/service"
)

type createHotelRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	City    string `json:"city"`
	Address string `json:"address"`
	Stars   *int   `json:"stars"`
	Price   *int   `json:"price"`
}

// CreateHotel добавляет отель в каталог.
func (h *ReservationHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	var req createHotelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "create hotel", err)
		return
	}

	hotel, err := h.service.CreateHotel(r.Context(), service.HotelInput(req))
	if err != nil {
		writeError(w, h.logger, "create hotel", err)
		return
	}

	writeJSON(w, http.StatusCreated, hotel)
}

type hotelsResponse struct {
	Hotels []model.Hotel `json:"hotels"`
}

// ListHotels возвращает страницу каталога.
func (h *ReservationHandler) ListHotels(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)

	hotels, err := h.service.ListHotels(r.Context(), page, perPage)
	if err != nil {
		writeError(w, h.logger, "list hotels", err)
		return
	}

	if hotels == nil {
		hotels = []model.Hotel{}
	}

	writeJSON(w, http.StatusOK, hotelsResponse{Hotels: hotels})
}

// GetHotel возвращает отель по UID.
func (h *ReservationHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "hotelUID")

	hotel, err := h.service.GetHotel(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, "get hotel", err, zap.String("hotel_uid", uid))
		return
	}

	writeJSON(w, http.StatusOK, hotel)
}

// DeleteHotel удаляет отель, на который не ссылаются бронирования.
func (h *ReservationHandler) DeleteHotel(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "hotelUID")

	if err := h.service.DeleteHotel(r.Context(), uid); err != nil {
		writeError(w, h.logger, "delete hotel", err, zap.String("hotel_uid", uid))
		return
	}

	writeMessage(w, http.StatusOK, "Hotel deleted successfully!")
}
