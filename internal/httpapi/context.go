package httpapi

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

func withLogger(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// loggerFrom returns the request-scoped logger stashed by requestID,
// falling back to fallback if the context was constructed some other way.
func loggerFrom(ctx context.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if log, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return log
	}
	return fallback
}
