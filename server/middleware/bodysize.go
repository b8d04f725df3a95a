package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pulse/errors"
)

// BodySizeLimit caps request bodies at limit bytes. Requests that declare a
// larger Content-Length are rejected with 413 up front; bodies that grow
// past the limit while being read fail with *http.MaxBytesError.
func BodySizeLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			appErr := apperrors.PayloadTooLarge(limit)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
