package requestid

import (
	"context"
	"net/http"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware"
	"github.com/satori/go.uuid"
)

//RequestIDFilterCode is the code used to register this middleware
const RequestIDFilterCode = "requestid"

//HeaderName carries the correlation id to the caller and the upstream
const HeaderName = "X-Request-Id"

//RequestIDFilter assigns every request a correlation id, unless the caller
//already provided one. The id is stored in the request context so the
//logger factory can attach it to every log line.
func RequestIDFilter() middleware.Func {
	return func(route abstraction.Route, loggerFactory log.Factory) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				rid := request.Header.Get(HeaderName)
				if rid == "" {
					rid = uuid.NewV4().String()
					request.Header.Set(HeaderName, rid)
				}
				writer.Header().Set(HeaderName, rid)

				ctx := context.WithValue(request.Context(), abstraction.ContextRequestIDKey, rid)
				next.ServeHTTP(writer, request.WithContext(ctx))
			})
		}
	}
}
