package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/shawnuphold/wishpark/internal/audit/domain"
	obscontext "github.com/shawnuphold/wishpark/internal/observability/context"
)

// APIKeyRequired authenticates requests with the configured bearer key. The
// key identifies the back office as a whole; per-operator identity arrives in
// the X-Operator header for audit attribution.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := strings.TrimSpace(s.cfg.APIKey)
		if configured == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(configured)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actorType := string(auditdomain.ActorTypeAPIKey)
		actorID := strings.TrimSpace(c.GetHeader("X-Operator"))
		if actorID != "" {
			actorType = string(auditdomain.ActorTypeStaff)
		}
		ctx := obscontext.WithActor(c.Request.Context(), actorType, actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RateLimit throttles by client IP using a fixed one-minute window.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// audit records the action without failing the request when the write fails.
func (s *Server) audit(c *gin.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}
