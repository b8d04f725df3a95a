package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pulse/component"
)

// Readiness is stricter than Health: any component that is not healthy,
// including a realtime registry still connecting or stale, answers 503.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var waiting []string
		if checker != nil {
			for _, h := range checker(c.Request.Context()) {
				if h.Status != component.StatusHealthy {
					waiting = append(waiting, h.Name)
				}
			}
		}

		if len(waiting) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"service": serviceName,
				"waiting": waiting,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}
