package ctxutil

import "context"

type (
	traceDataKey   struct{}
	requestDataKey struct{}
)

// TraceData correlates one HTTP request across logs, spans and the response.
type TraceData struct {
	TraceID   string
	RequestID string
}

// RequestData is the authenticated caller attached by the auth middleware.
type RequestData struct {
	UID         string
	Email       string
	DisplayName string
	Role        string
	SessionID   string
	DeviceID    string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	td, _ := ctx.Value(traceDataKey{}).(*TraceData)
	return td
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}

// LogFields returns the correlation key/value pairs present on ctx, in the
// shape logger.Logger accepts. Identifiers are hashed by the logger.
func LogFields(ctx context.Context) []interface{} {
	var out []interface{}
	if td := GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			out = append(out, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			out = append(out, "request_id", td.RequestID)
		}
	}
	if rd := GetRequestData(ctx); rd != nil {
		out = append(out, "uid", rd.UID, "session_id", rd.SessionID)
		if rd.Role != "" {
			out = append(out, "role", rd.Role)
		}
	}
	return out
}
