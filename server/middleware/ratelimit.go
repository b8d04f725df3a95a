package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pulse/errors"
	"github.com/kbukum/pulse/logger"
	"github.com/kbukum/pulse/resilience"
)

// RateLimit rejects requests with 429 once rl has no tokens left.
func RateLimit(rl *resilience.RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow() {
			c.Next()
			return
		}
		log.Debug("rate limited", logger.Fields(
			"limiter", rl.Name(),
			"path", c.Request.URL.Path,
		))
		appErr := apperrors.RateLimited(rl.Name())
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/rl.Rate()))))
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}
