package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/merchflow/merchflow/pkg/log/ctxlogger"
)

const requestIDHeader = "X-Request-Id"

// RequestIDMiddleware attaches a request ID to the context so downstream logs
// correlate, echoing it back in the response header.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := ctxlogger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
