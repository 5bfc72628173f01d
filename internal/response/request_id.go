package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key holding the request's trace ID.
const ContextKeyRequestID = "request_id"

// HeaderRequestID is the header the trace ID is read from and echoed back on.
const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware tags every request with a trace ID that comes back in
// the response envelope's metadata. A client-supplied X-Request-ID is kept so
// callers can correlate retries; otherwise a fresh one is issued.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
