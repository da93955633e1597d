package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/pulse-backend/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"
)

// AttachTraceContext runs after otelgin so the active span's trace id wins
// over a client-supplied one. Request ids are echoed or minted.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := ctxutil.Request{RequestID: strings.TrimSpace(c.GetHeader(HeaderRequestID))}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			req.TraceID = sc.TraceID().String()
		} else if h := strings.TrimSpace(c.GetHeader(HeaderTraceID)); h != "" {
			req.TraceID = h
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequest(c.Request.Context(), req))
		c.Writer.Header().Set(HeaderRequestID, req.RequestID)
		if req.TraceID != "" {
			c.Writer.Header().Set(HeaderTraceID, req.TraceID)
		}
		c.Next()
	}
}
