package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// NewRateLimiter Tests (Configuration)
// ============================================================================

func TestNewRateLimiter_DefaultConfig(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{})
	defer rl.Stop()

	if rl.rps != 20 {
		t.Errorf("expected default rps 20, got %v", rl.rps)
	}
	if rl.burst != 40 {
		t.Errorf("expected default burst 40, got %d", rl.burst)
	}
	if rl.idle != 5*time.Minute {
		t.Errorf("expected default cleanup 5m, got %v", rl.idle)
	}
}

func TestNewRateLimiter_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{})

	rl.Stop()
	rl.Stop()
}

// ============================================================================
// Allow() Tests
// ============================================================================

func TestAllow_BurstThenDeny(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{RPS: 0.001, Burst: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := rl.Allow("caller")
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if remaining != 2-i {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, 2-i, remaining)
		}
	}

	allowed, remaining, reset := rl.Allow("caller")
	if allowed {
		t.Error("fourth request should be denied")
	}
	if remaining != 0 {
		t.Errorf("expected remaining 0, got %d", remaining)
	}
	if !reset.After(time.Now()) {
		t.Error("reset time should be in the future")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{RPS: 0.001, Burst: 1})
	defer rl.Stop()

	if ok, _, _ := rl.Allow("a"); !ok {
		t.Fatal("first request for a should pass")
	}
	if ok, _, _ := rl.Allow("a"); ok {
		t.Error("second request for a should be denied")
	}
	if ok, _, _ := rl.Allow("b"); !ok {
		t.Error("b has its own bucket")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{RPS: 0.001, Burst: 50})
	defer rl.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := rl.Allow("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}

func TestCleanupIdle_DropsStaleVisitors(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{Cleanup: time.Minute})
	defer rl.Stop()

	rl.Allow("old")
	rl.cleanupIdle(time.Now().Add(2 * time.Minute))

	rl.mu.Lock()
	n := len(rl.visitors)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("expected stale visitor removed, %d left", n)
	}
}

// ============================================================================
// RateLimit Middleware Tests
// ============================================================================

func TestRateLimit_SetsHeadersAndRejects(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{RPS: 0.001, Burst: 1})
	defer rl.Stop()

	h := RateLimit(rl)(okHandler("ok"))

	req := httptest.NewRequest(http.MethodGet, "/v1/guilds", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("expected limit header 1, got %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected remaining 0, got %q", rr.Header().Get("X-RateLimit-Remaining"))
	}

	// different port, same host shares the bucket
	req = httptest.NewRequest(http.MethodGet, "/v1/guilds", nil)
	req.RemoteAddr = "10.0.0.1:6666"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	retry, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rr.Header().Get("Retry-After"))
	}
}

func TestRateLimit_KeysOnUserID(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{RPS: 0.001, Burst: 1})
	defer rl.Stop()

	h := RateLimit(rl)(okHandler("ok"))

	for _, user := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:1"
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, user))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("user %s: expected 200, got %d", user, rr.Code)
		}
	}
}
