// Package requestid assigns a correlation ID to every request.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mentneo/mentmine/pkg/observability/logger"
)

// RequestIDHeader is the HTTP header name for request ID.
const RequestIDHeader = "X-Request-ID"

// ContextKey is the gin context key holding the request ID.
const ContextKey = "request_id"

// maxLength bounds accepted inbound IDs; longer ones are replaced.
const maxLength = 128

// RequestID keeps a caller-supplied X-Request-ID or generates a UUID, echoes it in
// the response and stores it in both the gin context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxLength {
			requestID = uuid.New().String()
		}

		c.Set(ContextKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// Get returns the request ID stored by RequestID, or "".
func Get(c *gin.Context) string {
	return c.GetString(ContextKey)
}
