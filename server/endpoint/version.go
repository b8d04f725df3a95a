package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pulse/version"
)

// Version serves the build information of the running binary.
func Version(serviceName string) gin.HandlerFunc {
	info := version.Get()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "build": info})
	}
}
