package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// IdempotencyKeyHeader содержит ключ идемпотентности запроса.
const IdempotencyKeyHeader = "Idempotency-Key"

// KeyStore отмечает ключи идемпотентности.
type KeyStore interface {
	Key(scope, key string) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Idempotency отклоняет с кодом 409 повторные запросы с тем же заголовком Idempotency-Key.
// Ключ действует в пределах метода, пути и пользователя из X-User-Name. Ключ остаётся занятым,
// только если обработчик ответил кодом 2xx, иначе запрос с тем же ключом можно повторить.
// Запросы без заголовка проходят без проверки. Если хранилище недоступно, запрос
// пропускается, а ошибка логируется.
func Idempotency(store KeyStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			storeKey := store.Key(idempotencyScope(r), key)

			seen, err := store.Seen(r.Context(), storeKey)
			if err != nil {
				logger.Warn("idempotency store error", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if seen {
				writeMessage(w, http.StatusConflict, "request with this "+IdempotencyKeyHeader+" was already processed")
				return
			}

			data := &responseData{status: http.StatusOK}
			completed := false
			defer func() {
				if completed && data.status >= 200 && data.status < 300 {
					return
				}
				if err := store.Forget(context.WithoutCancel(r.Context()), storeKey); err != nil {
					logger.Warn("idempotency key release failed", zap.String("key", key), zap.Error(err))
				}
			}()

			next.ServeHTTP(&loggingResponseWriter{ResponseWriter: w, data: data}, r)
			completed = true
		})
	}
}

func idempotencyScope(r *http.Request) string {
	scope := r.Method + " " + r.URL.Path
	if username := strings.TrimSpace(r.Header.Get(UserNameHeader)); username != "" {
		scope += " " + username
	}
	return scope
}
