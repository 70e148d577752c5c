package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	custommiddleware "github.com/mmeshcher/hotel-reservation-system/internal/middleware"
)

func newRouter(logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(logger))

	r.Get("/test", TestRoute)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}

// SetupRouter настраивает HTTP-маршруты сервиса лояльности.
func (h *LoyaltyHandler) SetupRouter() *chi.Mux {
	r := newRouter(h.logger)

	r.Post("/loyalty", h.CreateLoyalty)
	r.Get("/loyalty/{username}", h.GetLoyalty)
	r.Patch("/loyalty/{username}/", h.AdjustLoyalty)

	return r
}

// SetupRouter настраивает HTTP-маршруты сервиса оплат.
func (h *PaymentHandler) SetupRouter() *chi.Mux {
	r := newRouter(h.logger)

	r.With(custommiddleware.Idempotency(h.keys, h.logger)).Post("/payment", h.CreatePayment)
	r.Get("/payment/{paymentUID}", h.GetPayment)
	r.With(custommiddleware.RequireUserName).Delete("/payment/{paymentUID}", h.DeletePayment)
	r.Get("/payments", h.ListPayments)

	return r
}

// SetupRouter настраивает HTTP-маршруты сервиса бронирований.
func (h *ReservationHandler) SetupRouter() *chi.Mux {
	r := newRouter(h.logger)

	r.Route("/reservation", func(r chi.Router) {
		r.Use(custommiddleware.RequireUserName)

		r.With(custommiddleware.Idempotency(h.keys, h.logger)).Post("/", h.CreateReservation)
		r.Get("/", h.ListReservations)
	})

	r.Route("/reservations/{reservationUID}", func(r chi.Router) {
		r.Get("/", h.GetReservation)
		r.Delete("/", h.CancelReservation)
		r.Patch("/", h.UpdateReservationStatus)
	})

	r.Route("/hotel", func(r chi.Router) {
		r.Post("/", h.CreateHotel)
		r.Get("/", h.ListHotels)
		r.Get("/{hotelUID}", h.GetHotel)
		r.Delete("/{hotelUID}", h.DeleteHotel)
	})

	r.Get("/reconciliation/{username}", h.Reconcile)

	return r
}
