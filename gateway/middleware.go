package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/example/pharmacart/pkg/txid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is the per-client request budget check.
type RateLimiter interface {
	Allow(ctx context.Context, clientKey string, limit int) (bool, error)
}

// txIDMiddleware mints a transaction id for every request, exposes it in the
// response and threads it through the request context for the whole pipeline.
func txIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := txid.New()
		c.Header("X-Transaction-Id", tx)
		c.Request = c.Request.WithContext(txid.NewContext(c.Request.Context(), tx))
		c.Next()
	}
}

func apiKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API Key"})
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware fails open: when the limiter itself errors the request
// goes through and the error is logged.
func rateLimitMiddleware(limiter RateLimiter, limit int, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP(), limit)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Rate limit exceeded."})
			return
		}
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.String("tx_id", txid.FromContext(c.Request.Context())),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
