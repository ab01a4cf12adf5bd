package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func performLimited(t *testing.T, rl *RateLimiter, uid interface{}) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/streams", nil)
	if uid != nil {
		c.Set("user_id", uid)
	}

	handler := RateLimitMiddleware(rl)
	handler(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return rec.Code
}

func TestRateLimitMiddleware_ExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(1) // burst of 2
	uid := uuid.New()

	for i := 0; i < 2; i++ {
		if code := performLimited(t, rl, uid); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, code)
		}
	}

	if code := performLimited(t, rl, uid); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst, got %d", code)
	}
}

func TestRateLimitMiddleware_PerUserBuckets(t *testing.T) {
	rl := NewRateLimiter(1)
	first := uuid.New()

	for i := 0; i < 3; i++ {
		performLimited(t, rl, first)
	}

	// A different user still has a full bucket
	if code := performLimited(t, rl, uuid.New()); code != http.StatusOK {
		t.Errorf("Expected 200 for a fresh user, got %d", code)
	}
}

func TestRateLimitMiddleware_NoIdentityPassesThrough(t *testing.T) {
	rl := NewRateLimiter(1)

	if code := performLimited(t, rl, nil); code != http.StatusOK {
		t.Errorf("Expected 200 without identity, got %d", code)
	}
}
