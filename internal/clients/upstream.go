// Package clients содержит общие части HTTP-клиентов для синхронных вызовов между сервисами.
package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// UpstreamError описывает неуспешный вызов другого сервиса.
// StatusCode равен нулю, если ответ не был получен.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s service responded %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s service responded %d", e.Service, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode возвращает код ответа другого сервиса из цепочки ошибок или 0.
func StatusCode(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}

// IsStatus сообщает, завершился ли вызов другого сервиса указанным кодом ответа.
func IsStatus(err error, code int) bool {
	return StatusCode(err) == code
}

// NewHTTPClient создаёт HTTP-клиент. Нулевой timeout означает отсутствие ограничения.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// BaseURL нормализует адрес сервиса: добавляет схему и убирает завершающий слэш.
func BaseURL(address string) string {
	base := strings.TrimRight(address, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return base
}

// ResponseError строит UpstreamError из ответа с неуспешным кодом.
func ResponseError(service string, resp *http.Response) *UpstreamError {
	var body struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}
	return &UpstreamError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    body.Message,
	}
}

// TransportError строит UpstreamError для вызова, не получившего ответа.
func TransportError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}
