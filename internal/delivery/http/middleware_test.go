package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{"http://localhost:3000", "https://priceless.example*"}

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"exact match", "http://localhost:3000", true},
		{"wildcard match", "https://priceless.example.app", true},
		{"no match", "http://evil.example", false},
		{"empty origin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAllowedOrigin(tt.origin, allowed); got != tt.want {
				t.Errorf("isAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected Access-Control-Allow-Methods header on preflight")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("rejects requests over the limit", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimitMiddleware(1, 2))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		statuses := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req, _ := http.NewRequest("GET", "/", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			statuses = append(statuses, w.Code)
		}

		if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
			t.Errorf("requests within burst should pass, got %v", statuses)
		}
		if statuses[2] != http.StatusTooManyRequests {
			t.Errorf("third request = %d, want %d", statuses[2], http.StatusTooManyRequests)
		}
	})
}

func TestLimiterPoolEviction(t *testing.T) {
	clock := time.Now()
	pool := newLimiterPool(1, 1)
	pool.now = func() time.Time { return clock }

	t.Run("active entries keep their limiter", func(t *testing.T) {
		first := pool.get("10.0.0.1")
		clock = clock.Add(limiterSweepInterval)
		if pool.get("10.0.0.1") != first {
			t.Error("active IP should reuse its limiter across sweeps")
		}
	})

	t.Run("idle entries are swept", func(t *testing.T) {
		pool.get("10.0.0.2")
		if len(pool.entries) != 2 {
			t.Fatalf("entries = %d, want 2", len(pool.entries))
		}

		// Advance past the idle TTL, then trigger a sweep with a new client.
		clock = clock.Add(limiterIdleTTL + limiterSweepInterval)
		pool.get("10.0.0.3")

		if len(pool.entries) != 1 {
			t.Errorf("entries after sweep = %d, want 1", len(pool.entries))
		}
		if _, ok := pool.entries["10.0.0.1"]; ok {
			t.Error("idle IP should have been evicted")
		}
	})

	t.Run("evicted entry restarts with a fresh limiter", func(t *testing.T) {
		limiter := pool.get("10.0.0.1")
		if !limiter.Allow() {
			t.Error("fresh limiter should allow its first request")
		}
	})
}
