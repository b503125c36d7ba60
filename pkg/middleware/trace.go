package middleware

import (
	"context"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"github.com/google/uuid"
)

// TraceIDHeader carries the trace ID on requests and responses.
const TraceIDHeader = "X-Trace-ID"

type traceIDKey struct{}

// TraceIDKey is the key used to store the trace ID in the request context.
var TraceIDKey = traceIDKey{}

// Trace is an interceptor that assigns a trace ID to each request, stores it
// in the request context and echoes it in the X-Trace-ID response header. An
// incoming X-Trace-ID is reused when trustIncoming is set.
func Trace(trustIncoming bool) common.Interceptor {
	return func(req *common.Request, res *common.Response, next common.Next) error {
		traceID := ""
		if trustIncoming {
			traceID = req.Header(TraceIDHeader)
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		req.WithValue(TraceIDKey, traceID)
		res.Set(TraceIDHeader, traceID)

		next()
		return nil
	}
}

// TraceIDFromRequest returns the trace ID of req, or "" if none was assigned.
func TraceIDFromRequest(req *common.Request) string {
	return GetTraceIDFromContext(req.Context())
}

// GetTraceIDFromContext extracts the trace ID from a context.
// Returns an empty string if no trace ID is found.
func GetTraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
