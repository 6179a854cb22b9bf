package tracing

import (
	"net/http"

	"github.com/opentracing-contrib/go-stdlib/nethttp"
	"github.com/opentracing/opentracing-go"
	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/handler"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware"
)

//SpanWrapper wraps the gateway entry handler with opentracing
func SpanWrapper(inner http.Handler) http.Handler {

	tracer := opentracing.GlobalTracer()

	return nethttp.Middleware(tracer, inner, nethttp.OperationNameFunc(func(r *http.Request) string {
		return "HTTP " + r.Method + ":" + r.URL.Path
	}), nethttp.MWSpanObserver(func(span opentracing.Span, r *http.Request) {
		span.SetTag("http.uri", r.URL.EscapedPath())
	}))
}

func MiddlewareSpanWrapper(operation string) func(inner middleware.Func) middleware.Func {
	return func(inner middleware.Func) middleware.Func {
		return func(route abstraction.Route, loggerFactory log.Factory) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
					span, ctx := opentracing.StartSpanFromContext(request.Context(), operation)
					defer span.Finish()
					inner(route, loggerFactory)(next).ServeHTTP(writer, request.WithContext(ctx))
				})
			}
		}
	}
}

func HandlerSpanWrapper(operation string) func(inner handler.Func) handler.Func {
	return func(inner handler.Func) handler.Func {
		return func(route abstraction.Route, loggerFactory log.Factory) http.Handler {
			return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				span, ctx := opentracing.StartSpanFromContext(request.Context(), operation)
				defer span.Finish()
				inner(route, loggerFactory).ServeHTTP(writer, request.WithContext(ctx))
			})
		}
	}
}
