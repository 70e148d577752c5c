// Package reservation предоставляет клиент сервиса бронирований.
package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmeshcher/hotel-reservation-system/internal/clients"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

const serviceName = "reservation"

// Client инкапсулирует HTTP-взаимодействие с сервисом бронирований.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Reservation описывает поля ответа сервиса бронирований, нужные вызывающим сервисам.
type Reservation struct {
	ReservationUID string                  `json:"reservation_uid"`
	Username       string                  `json:"username"`
	Status         model.ReservationStatus `json:"status"`
}

// NewClient создаёт клиент сервиса бронирований. Нулевой timeout означает ожидание ответа без ограничения.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    clients.BaseURL(baseURL),
		httpClient: clients.NewHTTPClient(timeout),
		tracer:     otel.Tracer("reservation-client"),
	}
}

// GetReservation запрашивает бронирование по UID.
func (c *Client) GetReservation(ctx context.Context, reservationUID string) (*Reservation, error) {
	if c.baseURL == "" {
		return nil, clients.TransportError(serviceName, fmt.Errorf("reservation client not configured"))
	}

	ctx, span := c.tracer.Start(ctx, "reservation.Get", trace.WithAttributes(attribute.String("reservation_uid", reservationUID)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reservations/"+url.PathEscape(reservationUID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, clients.TransportError(serviceName, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		upErr := clients.ResponseError(serviceName, resp)
		span.SetStatus(codes.Error, upErr.Error())
		return nil, upErr
	}

	var result Reservation
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode reservation response: %w", err)
	}

	return &result, nil
}
