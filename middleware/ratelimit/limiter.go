package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware"
	"golang.org/x/time/rate"
)

//RateLimitingFilterCode is the code used to register this middleware
const RateLimitingFilterCode = "ratelimit"

//DefaultGlobalRequestLimit defines max nr of request / route / second
const DefaultGlobalRequestLimit = 5000

//RateLimiting rejects requests above the configured per-route rate with 429
func RateLimiting(limit int) middleware.Func {
	return func(route abstraction.Route, loggerFactory log.Factory) func(http.Handler) http.Handler {
		if limit <= 0 {
			limit = DefaultGlobalRequestLimit
		}
		limiter := rate.NewLimiter(rate.Limit(limit), limit)

		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				setResponseHeaders(limiter.Limit(), w, r)

				if !limiter.Allow() {
					http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
					return
				}

				next.ServeHTTP(w, r)
			})
		}
	}
}

func setResponseHeaders(lmt rate.Limit, w http.ResponseWriter, r *http.Request) {
	w.Header().Add("X-Rate-Limit-Limit", fmt.Sprintf("%.2f", lmt))
	w.Header().Add("X-Rate-Limit-Duration", "1")
	w.Header().Add("X-Rate-Limit-Request-Forwarded-For", r.Header.Get("X-Forwarded-For"))
	w.Header().Add("X-Rate-Limit-Request-Remote-Addr", r.RemoteAddr)
}
