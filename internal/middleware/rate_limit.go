package middleware

import (
	"context"

	"template-mailer/auth"
	"template-mailer/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter decides whether a caller still has quota.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit throttles per signed-in user, falling back to the client IP.
func RateLimit(limiter Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(auth.ContextEmail)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !limiter.Allow(c.Request.Context(), key) {
			log.Warn("rate limited", zap.String("key", key), zap.String("path", c.FullPath()))
			c.Error(errors.RateLimited("too many requests, try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
