package logging

import "context"

type contextKey struct{ name string }

var (
	requestIDKey     = &contextKey{"requestId"}
	correlationIDKey = &contextKey{"correlationId"}
	traceIDKey       = &contextKey{"traceId"}
	userIDKey        = &contextKey{"userId"}
)

var contextKeys = []*contextKey{requestIDKey, correlationIDKey, traceIDKey, userIDKey}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// CorrelationIDFromContext returns the correlation id stored in ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
