package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/presence/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"presence.lan", "presence.lan", true},
		{"presence.lan:8080", "presence.lan", true},
		{"presence.lan:8080", "presence.lan:8080", true},
		{"presence.lan:9090", "presence.lan:8080", false},
		{"a.example.com", "*.example.com", true},
		{"a.b.example.com:443", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evilexample.com", "*.example.com", false},
		{"other.lan", "presence.lan", false},
	}

	for _, tt := range tests {
		t.Run(tt.host+"|"+tt.pattern, func(t *testing.T) {
			if got := matchHost(tt.host, tt.pattern); got != tt.want {
				t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Presence.LAN"}, logger.NewNop())(okHandler)

	r := httptest.NewRequest(http.MethodPost, "/api/rescan", nil)
	r.Host = "presence.lan:8080"
	if rec := serve(h, r); rec.Code != http.StatusNoContent {
		t.Errorf("allowed host: status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/rescan", nil)
	r.Host = "attacker.example"
	if rec := serve(h, r); rec.Code != http.StatusForbidden {
		t.Errorf("foreign host: status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestEnforceHostEmptyListAllowsAll(t *testing.T) {
	h := EnforceHost(nil, logger.NewNop())(okHandler)
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Host = "anything"
	if rec := serve(h, r); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"192.168.0.0/16", "10.0.0.7"}, false, logger.NewNop())(okHandler)

	tests := []struct {
		remote string
		want   int
	}{
		{"192.168.1.20:5000", http.StatusNoContent},
		{"10.0.0.7:5000", http.StatusNoContent},
		{"10.0.0.8:5000", http.StatusForbidden},
		{"[::1]:5000", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
		r.RemoteAddr = tt.remote
		if rec := serve(h, r); rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}
}

func TestAllowOnlyCIDRSTrustProxy(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"192.168.0.0/16"}, true, logger.NewNop())(okHandler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "172.17.0.1:4000"
	r.Header.Set("X-Forwarded-For", "192.168.1.5, 172.17.0.1")
	if rec := serve(h, r); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestLimiterAllow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 6, Now: func() time.Time { return now }})

	for i := 0; i < 2; i++ {
		if ok, _, _ := l.allow("a", now); !ok {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}

	ok, _, retry := l.allow("a", now)
	if ok {
		t.Fatal("third request should be rejected")
	}
	if retry != 10 {
		t.Errorf("retryAfter = %d, want 10", retry)
	}

	if ok, _, _ := l.allow("b", now); !ok {
		t.Error("other client should have its own bucket")
	}

	if ok, _, _ := l.allow("a", now.Add(10*time.Second)); !ok {
		t.Error("request after refill should be allowed")
	}
}

func TestLimiterSweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{
		Burst:         1,
		IdleTTL:       time.Minute,
		SweepInterval: time.Minute,
		Now:           func() time.Time { return now },
	})

	l.allow("a", now)
	l.allow("b", now)
	if l.size() != 2 {
		t.Fatalf("size() = %d, want 2", l.size())
	}

	l.allow("c", now.Add(2*time.Minute))
	if l.size() != 1 {
		t.Errorf("size() after sweep = %d, want 1", l.size())
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1})(okHandler)

	r := httptest.NewRequest(http.MethodPost, "/api/rescan", nil)
	rec := serve(h, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", got)
	}

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/rescan", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}
