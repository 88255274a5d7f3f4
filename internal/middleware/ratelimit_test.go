package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(3)
	handler := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-burst status %d", rec.Code)
	}

	// A different client has its own bucket.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh client status %d", rec.Code)
	}
}
