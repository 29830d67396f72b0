package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/examprep-backend/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"
)

// Inbound ids are echoed into logs and headers, so only short opaque tokens
// are accepted.
var inboundID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

func inbound(c *gin.Context, header string) string {
	v := strings.TrimSpace(c.GetHeader(header))
	if !inboundID.MatchString(v) {
		return ""
	}
	return v
}

// AttachTraceContext stamps every request with a trace id and a request id.
// An active otel span wins over a client-supplied trace id.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := inbound(c, HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		var traceID string
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else if traceID = inbound(c, HeaderTraceID); traceID == "" {
			traceID = reqID
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Header(HeaderTraceID, traceID)
		c.Header(HeaderRequestID, reqID)
		c.Next()
	}
}
