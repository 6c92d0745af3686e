package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the request correlation id on the wire
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the gin context key the correlation id is stored under
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags every request with a correlation id. A caller-provided
// header value is kept so upstream systems can trace a disbursement across
// services; otherwise a fresh UUID is generated. The id is echoed back in the
// response header.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, id)
		c.Set(CorrelationIDKey, id)

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation id, or "" when the
// middleware did not run
func GetCorrelationID(c *gin.Context) string {
	raw, exists := c.Get(CorrelationIDKey)
	if !exists {
		return ""
	}
	id, ok := raw.(string)
	if !ok {
		return ""
	}
	return id
}
