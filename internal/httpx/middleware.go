// Package httpx holds the gin middleware shared by the HTTP services.
package httpx

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	ridKey          = "rid"
)

// RequestID reuses the caller's X-Request-ID or mints one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ridKey, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

// RID returns the request id set by RequestID, or "-" outside it.
func RID(c *gin.Context) string {
	if rid := c.GetString(ridKey); rid != "" {
		return rid
	}
	return "-"
}

func Logger(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		line := "[http] svc=%s rid=%s %s %s status=%d dur=%s"
		args := []any{service, RID(c), c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start)}
		if len(c.Errors) > 0 {
			line += " err=%q"
			args = append(args, c.Errors.String())
		}
		log.Printf(line, args...)
	}
}
