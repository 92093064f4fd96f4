package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitByIP_BlocksAfterLimit(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 3}
	limited := RateLimitByIP(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, w.Code)
		}
	}

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	w := httptest.NewRecorder()
	limited.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429 after limit, got %d", w.Code)
	}
}

func TestRateLimitByIP_SeparateCountersPerIP(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 1}
	limited := RateLimitByIP(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest("POST", "/login", nil)
	first.RemoteAddr = "192.0.2.10:1234"
	w := httptest.NewRecorder()
	limited.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("first IP: expected status 200, got %d", w.Code)
	}

	second := httptest.NewRequest("POST", "/login", nil)
	second.RemoteAddr = "192.0.2.20:1234"
	w = httptest.NewRecorder()
	limited.ServeHTTP(w, second)
	if w.Code != http.StatusOK {
		t.Errorf("second IP: expected status 200, got %d", w.Code)
	}
}
