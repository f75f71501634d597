// Package middleware provides HTTP middleware components.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"comptoir/internal/core/reqctx"
)

// HeaderRequestID is the request correlation header.
const HeaderRequestID = "X-Request-ID"

// RequestID extracts or generates a request ID, puts it on the
// context for the logger and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := reqctx.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
