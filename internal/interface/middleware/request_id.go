package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CtxRequestIDKey is the Gin context key carrying the request id.
	CtxRequestIDKey = "request_id"
	// HeaderRequestID is the wire header for request correlation.
	HeaderRequestID = "X-Request-ID"
)

// RequestID tags every request with a correlation id. An id supplied by the
// caller on X-Request-ID is kept so ids survive hops through a gateway; the
// id is always echoed on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(CtxRequestIDKey, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}
