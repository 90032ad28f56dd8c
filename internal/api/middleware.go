package api

import (
	"net/http"
	"strconv"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit returns a middleware enforcing the per-IP fixed-window limit.
// The three X-RateLimit-* headers are attached to every response that went
// through the limiter, allowed or denied; denials answer 429 with the retry
// information mirrored in the body.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := limiter.Check("ip:" + c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(result.ResetSecs))

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":            string(apperrors.KindRateLimited),
				"message":          "rate limit exceeded, try again later",
				"retry_after_secs": result.RetryAfterSecs,
				"limit":            result.Limit,
				"remaining":        result.Remaining,
			})
			return
		}
		c.Next()
	}
}
