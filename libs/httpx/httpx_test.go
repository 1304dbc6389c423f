package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "req-1" || rw.Header().Get(RequestIDHeader) != "req-1" {
		t.Fatalf("expected req-1 to be propagated, got %q / %q", seen, rw.Header().Get(RequestIDHeader))
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "req-1" {
		t.Fatalf("expected a generated request id, got %q", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(okHandler)

	do := func(business string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(BusinessIDHeader, business)
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		return rw
	}

	for i := 0; i < 2; i++ {
		if rw := do("biz-1"); rw.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rw.Code)
		}
	}
	rw := do("biz-1")
	if rw.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rw.Code)
	}
	if rw.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rw.Header().Get("Retry-After"))
	}
	if rw := do("biz-2"); rw.Code != http.StatusOK {
		t.Fatalf("expected other business to pass, got %d", rw.Code)
	}

	now = now.Add(time.Minute)
	if rw := do("biz-1"); rw.Code != http.StatusOK {
		t.Fatalf("expected new window to pass, got %d", rw.Code)
	}
}

func TestWithCORS(t *testing.T) {
	h := Chain(okHandler, WithCORS(CORSPolicy{AllowedOrigins: []string{"https://app.example.com"}, MaxAge: time.Minute}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/business/hours", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rw.Code)
	}
	if rw.Header().Get("Access-Control-Max-Age") != "60" {
		t.Fatalf("expected max age 60, got %q", rw.Header().Get("Access-Control-Max-Age"))
	}

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", rw.Code)
	}

	if Chain(okHandler, WithCORS(CORSPolicy{})) == nil {
		t.Fatal("expected disabled CORS to leave the handler intact")
	}
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		WithRecover(discardLogger()),
	)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
