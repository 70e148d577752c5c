package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireUserName_WithHeader(t *testing.T) {
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		name, ok := GetUserNameFromContext(r.Context())
		if !ok {
			t.Fatalf("username not in context")
		}
		if name != "alice" {
			t.Fatalf("username from context = %q, want alice", name)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/reservation", nil)
	r.Header.Set(UserNameHeader, " alice ")

	RequireUserName(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestRequireUserName_WithoutHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/reservation", nil)

	RequireUserName(next).ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
}
