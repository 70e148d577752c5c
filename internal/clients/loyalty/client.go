// Package loyalty предоставляет клиент сервиса лояльности.
package loyalty

import (
	"bytes"
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

const serviceName = "loyalty"

// Client инкапсулирует HTTP-взаимодействие с сервисом лояльности.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient создаёт клиент сервиса лояльности. Нулевой timeout означает ожидание ответа без ограничения.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    clients.BaseURL(baseURL),
		httpClient: clients.NewHTTPClient(timeout),
		tracer:     otel.Tracer("loyalty-client"),
	}
}

// GetLoyalty запрашивает счёт лояльности пользователя.
func (c *Client) GetLoyalty(ctx context.Context, username string) (*model.LoyaltyAccount, error) {
	ctx, span := c.tracer.Start(ctx, "loyalty.Get", trace.WithAttributes(attribute.String("username", username)))
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, "/loyalty/"+url.PathEscape(username), nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		upErr := clients.ResponseError(serviceName, resp)
		span.SetStatus(codes.Error, upErr.Error())
		return nil, upErr
	}

	var account model.LoyaltyAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode loyalty response: %w", err)
	}

	return &account, nil
}

type adjustRequest struct {
	ReservationCount int  `json:"reservation_count"`
	ExpectedCount    *int `json:"expected_count,omitempty"`
}

// AdjustLoyalty устанавливает новое значение счётчика бронирований.
// Если expected не nil, сервис применит запись только при совпадении текущего значения и иначе ответит 409.
func (c *Client) AdjustLoyalty(ctx context.Context, username string, newCount int, expected *int) error {
	ctx, span := c.tracer.Start(ctx, "loyalty.Adjust", trace.WithAttributes(
		attribute.String("username", username),
		attribute.Int("reservation_count", newCount),
	))
	defer span.End()

	body, err := json.Marshal(adjustRequest{ReservationCount: newCount, ExpectedCount: expected})
	if err != nil {
		return fmt.Errorf("encode adjust request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPatch, "/loyalty/"+url.PathEscape(username)+"/", body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		upErr := clients.ResponseError(serviceName, resp)
		span.SetStatus(codes.Error, upErr.Error())
		return upErr
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, clients.TransportError(serviceName, fmt.Errorf("loyalty client not configured"))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, clients.TransportError(serviceName, fmt.Errorf("do request: %w", err))
	}
	return resp, nil
}
