package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/renewly/renewly/internal/config"
	"github.com/renewly/renewly/internal/observability/metrics"
	"go.uber.org/zap"
)

const keyRequest = "ratelimit:ip:%s"

// RequestLimiter throttles inbound requests per client IP. A nil
// limiter (no redis configured) allows everything.
type RequestLimiter struct {
	bucket  *TokenBucket
	rate    float64
	burst   int
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewRequestLimiter(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *RequestLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RequestLimiter{
		bucket:  NewTokenBucket(client),
		rate:    cfg.RateLimitRate,
		burst:   cfg.RateLimitBurst,
		log:     log.Named("ratelimit"),
		metrics: m,
	}
}

func (l *RequestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *RequestLimiter) Allow(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyRequest, clientIP), l.rate, l.burst)
}

// Middleware enforces the limiter on every request. Redis trouble
// fails open: a broken limiter must not take the API down with it.
func (l *RequestLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() {
			c.Next()
			return
		}

		result, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			l.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !result.Allowed {
			l.metrics.RecordRateLimitDenied(c.Request.Context(), c.FullPath(), "bucket_empty")
			if result.RetryAfter > 0 {
				c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter/time.Second)+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"type":    "rate_limited",
					"message": "too many requests",
				},
			})
			return
		}

		l.metrics.RecordRateLimitAllowed(c.Request.Context(), c.FullPath())
		c.Next()
	}
}
