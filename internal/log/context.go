package log

import "context"

// ContextWithCorrelationID stores id for GetOrGenerateCorrelationID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelatedIDKey, id)
}

// ContextWithLogger attaches a request-scoped logger.
func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, LoggerKeyForContext, l)
}

// FromContext returns the attached logger or nil.
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(LoggerKeyForContext).(*Logger)
	return l
}
