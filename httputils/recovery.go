package httputils

import (
	"net/http"

	"github.com/osstotalsoft/edge-gateway/log"
	"go.uber.org/zap"
)

//RecoveryHandler handles pipeline panic; the caller gets a bare 500 with
//no internal detail
func RecoveryHandler(loggerFactory log.Factory) func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					w.WriteHeader(http.StatusInternalServerError)
					loggerFactory(req.Context()).Error("internal server error", zap.Any("error", err), zap.Stack("stack_trace"))
				}
			}()

			inner.ServeHTTP(w, req)
		})
	}
}
