package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bundlecheck/backend/internal/interfaces/http/dto"
)

// BodyLimit caps the request body size. Check submissions carry two
// line items at most, so anything near the limit is malformed or abuse.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeBadRequest,
				"Request body exceeds maximum allowed size",
			))
			return
		}

		// Declared length can lie or be absent, so the reader enforces
		// the same cap on the actual stream.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
