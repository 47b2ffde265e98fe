package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func recommendFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 3, slog.Default())
	defer stop()
	rl.rejected = prometheus.NewCounter(prometheus.CounterOpts{Name: "rejected_test"})
	h := rl.middleware(okHandler)

	for i := range 3 {
		if w := recommendFrom(h, "10.0.0.1:9999"); w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: expected 200, got %d", i, w.Code)
		}
	}

	w := recommendFrom(h, "10.0.0.1:9999")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", w.Code)
	}
	secs, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || secs < 1 || secs > 3600 {
		t.Errorf("Retry-After: got %q, want whole seconds in [1, 3600]", w.Header().Get("Retry-After"))
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestRateLimit_RejectedRequestKeepsNoToken(t *testing.T) {
	t.Parallel()

	// 20 rps: a token comes back every 50ms. Rejections must not push the
	// next token further out.
	rl, stop := newRateLimiter(20, 1, slog.Default())
	defer stop()
	h := rl.middleware(okHandler)

	recommendFrom(h, "10.0.0.3:1")
	for range 5 {
		recommendFrom(h, "10.0.0.3:1")
	}
	time.Sleep(120 * time.Millisecond)
	if w := recommendFrom(h, "10.0.0.3:1"); w.Code != http.StatusOK {
		t.Errorf("expected a token after the refill interval, got %d", w.Code)
	}
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 1, slog.Default())
	defer stop()
	h := rl.middleware(okHandler)

	for range 5 {
		recommendFrom(h, "192.168.1.1:1111")
	}
	if w := recommendFrom(h, "192.168.1.2:2222"); w.Code != http.StatusOK {
		t.Errorf("second IP: expected 200, got %d", w.Code)
	}
	// Same host, different source port.
	if w := recommendFrom(h, "192.168.1.1:3333"); w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP on a new port: expected 429, got %d", w.Code)
	}
}

func TestRateLimit_Evict(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 1, slog.Default())
	stop()
	stop()

	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")
	if rl.size() != 2 {
		t.Fatalf("expected 2 tracked IPs, got %d", rl.size())
	}

	rl.evict(time.Now())
	if rl.size() != 2 {
		t.Errorf("fresh entries must survive eviction, got %d", rl.size())
	}
	rl.evict(time.Now().Add(limiterTTL + time.Second))
	if rl.size() != 0 {
		t.Errorf("stale entries must be evicted, got %d", rl.size())
	}
}

// rateInf mirrors rate.InfDuration.
const rateInf = time.Duration(1<<63 - 1)

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		10 * time.Millisecond:   "1",
		time.Second:             "1",
		1500 * time.Millisecond: "2",
		1000 * time.Second:      "1000",
		rateInf:                 "3600",
	}
	for d, want := range cases {
		if got := retryAfter(d); got != want {
			t.Errorf("retryAfter(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		remoteAddr string
		wantIP     string
	}{
		{"127.0.0.1:54321", "127.0.0.1"},
		{"10.0.0.1:80", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"::1:8080", "::1"},
		{"noport", "noport"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remoteAddr
		if got := clientIP(req); got != tc.wantIP {
			t.Errorf("remoteAddr=%q: expected %q, got %q", tc.remoteAddr, tc.wantIP, got)
		}
	}
}
