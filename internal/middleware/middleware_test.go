package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	h := APIKeyMiddleware("secret")(okHandler)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"valid", "secret", http.StatusOK},
		{"wrong", "nope", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("expected %d got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestAPIKeyMiddleware_EmptyKeyRejectsAll(t *testing.T) {
	t.Parallel()

	h := APIKeyMiddleware("")(okHandler)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	t.Parallel()

	var read []byte
	var readErr error
	h := RequireJSON(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		read, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "text/xml")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || readErr != nil || string(read) != `{"a":1}` {
		t.Fatalf("expected body passed through, code=%d err=%v body=%q", rr.Code, readErr, read)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if readErr == nil {
		t.Fatalf("expected oversized body to fail reading")
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := Limit(ctx, 1, 2, time.Minute, newTestLogger())(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("other client must not be throttled, got %d", rr.Code)
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	t.Parallel()

	l := &rateLimiter{visitors: map[string]*visitor{}, limit: 1, burst: 1, ttl: time.Minute}
	l.getVisitor("10.0.0.1")
	l.evictIdle(time.Now().Add(2 * time.Minute))
	if len(l.visitors) != 0 {
		t.Fatalf("expected idle visitor evicted")
	}
}
