package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tag "github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
	"github.com/osstotalsoft/edge-gateway/log"
	"go.uber.org/zap/zapcore"
)

//SpanLoggerFactory decorates a log.Factory so that log lines emitted
//inside an active span are mirrored onto the span
func SpanLoggerFactory(inner log.Factory) log.Factory {
	return func(ctx context.Context) log.Logger {
		logger := inner(ctx)
		if ctx != nil {
			if span := opentracing.SpanFromContext(ctx); span != nil {
				return spanLogger{logger, span}
			}
		}
		return logger
	}
}

type spanLogger struct {
	logger log.Logger
	span   opentracing.Span
}

func (sl spanLogger) Info(msg string, fields ...zapcore.Field) {
	sl.logToSpan("info", msg)
	sl.logger.Info(msg, fields...)
}

func (sl spanLogger) Error(msg string, fields ...zapcore.Field) {
	sl.logToSpan("error", msg)
	tag.Error.Set(sl.span, true)
	sl.logger.Error(msg, fields...)
}

func (sl spanLogger) Fatal(msg string, fields ...zapcore.Field) {
	sl.logToSpan("fatal", msg)
	tag.Error.Set(sl.span, true)
	sl.logger.Fatal(msg, fields...)
}

func (sl spanLogger) Debug(msg string, fields ...zapcore.Field) {
	sl.logToSpan("debug", msg)
	sl.logger.Debug(msg, fields...)
}

func (sl spanLogger) Warn(msg string, fields ...zapcore.Field) {
	sl.logToSpan("warn", msg)
	sl.logger.Warn(msg, fields...)
}

func (sl spanLogger) Panic(msg string, fields ...zapcore.Field) {
	sl.logToSpan("panic", msg)
	tag.Error.Set(sl.span, true)
	sl.logger.Panic(msg, fields...)
}

func (sl spanLogger) With(fields ...zapcore.Field) log.Logger {
	return spanLogger{logger: sl.logger.With(fields...), span: sl.span}
}

func (sl spanLogger) logToSpan(level string, msg string) {
	sl.span.LogFields(
		otlog.String("event", msg),
		otlog.String("level", level),
	)
}
