package log

import (
	"context"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"go.uber.org/zap"
)

// Factory creates a request-scoped Logger from the request context
type Factory func(ctx context.Context) Logger

// ZapLoggerFactory returns a Factory that enriches the logger with the
// request correlation id when one is present in the context.
func ZapLoggerFactory(logger *zap.Logger) Factory {
	return func(ctx context.Context) Logger {
		if ctx != nil {
			if rid, ok := ctx.Value(abstraction.ContextRequestIDKey).(string); ok {
				return zapLogger{logger.With(zap.String("request_id", rid))}
			}
		}
		return zapLogger{logger}
	}
}
