package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(generalBurst, publicBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001), // テスト中に補充されない程度に遅く
		GeneralBurst:    generalBurst,
		PublicRate:      rate.Limit(0.001),
		PublicBurst:     publicBurst,
		CleanupInterval: time.Hour,
	}
}

func TestGeneralMiddleware_LimitsPerProfile(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2, 2))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(profileID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/members", nil)
		req = req.WithContext(ContextWithProfileID(req.Context(), profileID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("profile-1"); code != http.StatusOK {
		t.Errorf("1st request = %d", code)
	}
	if code := do("profile-1"); code != http.StatusOK {
		t.Errorf("2nd request = %d", code)
	}
	if code := do("profile-1"); code != http.StatusTooManyRequests {
		t.Errorf("3rd request = %d, want 429", code)
	}

	// 別プロフィールには影響しない
	if code := do("profile-2"); code != http.StatusOK {
		t.Errorf("other profile request = %d", code)
	}
}

func TestGeneralMiddleware_RequiresSession(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2, 2))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/members", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPublicMiddleware_LimitsPerIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2, 1))
	defer rl.Stop()

	handler := rl.PublicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	do := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("10.0.0.1:1234"); rec.Code != http.StatusAccepted {
		t.Errorf("1st request = %d", rec.Code)
	}
	rec := do("10.0.0.1:5678")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("2nd request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// 別IPには影響しない
	if rec := do("10.0.0.2:1234"); rec.Code != http.StatusAccepted {
		t.Errorf("other IP request = %d", rec.Code)
	}
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP = %q", got)
	}
}

func TestRateLimiter_CleanupRemovesIdleEntries(t *testing.T) {
	config := testRateLimiterConfig(2, 2)
	config.CleanupInterval = time.Nanosecond
	rl := NewRateLimiter(config)
	defer rl.Stop()

	rl.getOrCreate(&rl.generalMu, rl.generalLimiters, "profile-1", config.GeneralRate, config.GeneralBurst)
	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("count = %d", rl.GeneralLimiterCount())
	}

	// lastAccessを過去に倒してクリーンアップ対象にする
	rl.generalMu.Lock()
	rl.generalLimiters["profile-1"].lastAccess = time.Now().Add(-time.Hour)
	rl.generalMu.Unlock()

	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("count after cleanup = %d, want 0", rl.GeneralLimiterCount())
	}
}
