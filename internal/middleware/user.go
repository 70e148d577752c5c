// Package middleware содержит HTTP middleware сервисов бронирования отелей.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const userNameKey contextKey = "userName"

// UserNameHeader содержит имя пользователя, от лица которого выполняется запрос.
// Значение не проверяется: сервисы доверяют вызывающей стороне.
const UserNameHeader = "X-User-Name"

// RequireUserName пропускает запрос только с непустым заголовком X-User-Name
// и кладёт имя пользователя в контекст запроса.
func RequireUserName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.Header.Get(UserNameHeader))
		if username == "" {
			writeMessage(w, http.StatusBadRequest, UserNameHeader+" header is required")
			return
		}

		ctx := WithUserName(r.Context(), username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUserName возвращает контекст с именем пользователя.
func WithUserName(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userNameKey, username)
}

// GetUserNameFromContext извлекает имя пользователя из контекста запроса.
func GetUserNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userNameKey).(string)
	return name, ok
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
