// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testLoginProtectionConfig returns a config suitable for fast testing.
func testLoginProtectionConfig(maxAttempts int) LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	}
}

func TestAccountLockoutAfterFailedAttempts(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(3))

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt("user@example.com"); locked {
			t.Fatalf("locked after %d attempts, want 3", i+1)
		}
	}

	locked, duration := lp.RecordFailedAttempt("user@example.com")
	if !locked {
		t.Fatal("expected lockout after 3 failed attempts")
	}
	if duration != time.Minute {
		t.Errorf("lock duration = %v, want 1m", duration)
	}

	if isLocked, _ := lp.IsAccountLocked("user@example.com"); !isLocked {
		t.Error("IsAccountLocked should report the lock")
	}
	if isLocked, _ := lp.IsAccountLocked("other@example.com"); isLocked {
		t.Error("other accounts must not be locked")
	}
}

func TestSuccessfulLoginClearsAttempts(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(3))

	lp.RecordFailedAttempt("user@example.com")
	lp.RecordFailedAttempt("user@example.com")
	lp.RecordSuccessfulLogin("user@example.com")

	// Counter starts over
	if locked, _ := lp.RecordFailedAttempt("user@example.com"); locked {
		t.Error("attempt counter should have been reset")
	}
}

func TestLockoutBacksOffExponentially(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(1))

	_, first := lp.RecordFailedAttempt("user@example.com")
	if first != time.Minute {
		t.Fatalf("first lockout = %v, want 1m", first)
	}

	// Expire the first lock manually, then lock again
	lp.attemptsMu.Lock()
	lp.failedAttempts["user@example.com"].lockedUntil = time.Now().Add(-time.Second)
	lp.attemptsMu.Unlock()

	_, second := lp.RecordFailedAttempt("user@example.com")
	if second != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m", second)
	}
}

func TestLoginMiddlewareOnlyLimitsPost(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       0.001,
		IPBurst:           1,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method string) int {
		req := httptest.NewRequest(method, "/api/v1/auth/login", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send(http.MethodPost); got != http.StatusOK {
		t.Errorf("first POST = %d, want 200", got)
	}
	if got := send(http.MethodPost); got != http.StatusTooManyRequests {
		t.Errorf("second POST = %d, want 429", got)
	}
	// GET requests are never rate limited
	if got := send(http.MethodGet); got != http.StatusOK {
		t.Errorf("GET = %d, want 200", got)
	}
}
