package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shawnuphold/wishpark/internal/config"
	obscontext "github.com/shawnuphold/wishpark/internal/observability/context"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	return &Server{
		cfg:     cfg,
		log:     zap.NewNop(),
		limiter: newRateLimiter(cfg.RateLimitPerMinute, time.Minute),
	}
}

func authedEngine(s *Server, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/probe", s.RateLimit(), s.APIKeyRequired(), handler)
	return engine
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, config.Config{APIKey: "sk_test", RateLimitPerMinute: 100})
	engine := authedEngine(s, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid key", "Bearer sk_test", http.StatusNoContent},
		{"wrong key", "Bearer sk_other", http.StatusUnauthorized},
		{"wrong scheme", "Basic sk_test", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAPIKeyRequiredRejectsWhenUnconfigured(t *testing.T) {
	s := newTestServer(t, config.Config{APIKey: "", RateLimitPerMinute: 100})
	engine := authedEngine(s, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAPIKeySetsOperatorActor(t *testing.T) {
	s := newTestServer(t, config.Config{APIKey: "sk_test", RateLimitPerMinute: 100})

	var actorType, actorID string
	engine := authedEngine(s, func(c *gin.Context) {
		actorType, actorID = obscontext.ActorFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer sk_test")
	req.Header.Set("X-Operator", "mallory")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if actorType != "staff" || actorID != "mallory" {
		t.Fatalf("actor = %s/%s, want staff/mallory", actorType, actorID)
	}
}

func TestRateLimitThrottles(t *testing.T) {
	s := newTestServer(t, config.Config{APIKey: "sk_test", RateLimitPerMinute: 2})
	engine := authedEngine(s, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer sk_test")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer sk_test")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}
