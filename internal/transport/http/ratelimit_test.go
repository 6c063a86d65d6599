package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AGmitmanipal/BACKEND/internal/auth"
	"github.com/AGmitmanipal/BACKEND/internal/ratelimit"
)

func TestRateLimit_PerRequester(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewStore(0.001, 1)
	handler := Authenticate(nil, RateLimit(store, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	send := func(method, requester string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/reserve", nil)
		req.Header.Set("X-Requester-ID", requester)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(http.MethodPost, "user-1"); rec.Code != http.StatusCreated {
		t.Fatalf("expected first request through, got %d", rec.Code)
	}
	rec := send(http.MethodPost, "user-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), codeRateLimited) {
		t.Fatalf("expected rate_limited code, got %q", rec.Body.String())
	}
	if rec := send(http.MethodPost, "user-2"); rec.Code != http.StatusCreated {
		t.Fatalf("expected other requester through, got %d", rec.Code)
	}
	if rec := send(http.MethodGet, "user-1"); rec.Code != http.StatusCreated {
		t.Fatalf("expected reads to bypass the limiter, got %d", rec.Code)
	}
}

func TestRateLimitKey(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/reserve", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	if got := rateLimitKey(req); got != "ip:10.0.0.7" {
		t.Fatalf("unexpected key %q", got)
	}

	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{RequesterID: "u"}))
	if got := rateLimitKey(req); got != "requester:u" {
		t.Fatalf("unexpected key %q", got)
	}
}
