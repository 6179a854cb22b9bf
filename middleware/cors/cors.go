package cors

import (
	"net/http"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware"
	"github.com/rs/cors"
)

//Options are the CORS options applied identically to every route
type Options struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

//AllowedMethods is every method the gateway will forward; the proxy route
//has "ANY" semantics so the policy must not be narrower than this.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

//AllowedHeaders is the exact header contract browser callers rely on.
//Removing any entry breaks preflighted requests.
var AllowedHeaders = []string{
	"Content-Type",
	"Date",
	"Authorization",
	"X-Api-Key",
	"X-Security-Token",
	"X-Auth-Id",
}

//CORSFilter provides Cross-Origin Resource Sharing middleware using rs/cors.
//Preflight requests are answered directly (204, no body) without reaching
//any handler; actual responses, error responses included, get the policy
//headers attached.
func CORSFilter(options Options) middleware.Func {
	return func(route abstraction.Route, loggerFactory log.Factory) func(http.Handler) http.Handler {
		origins := options.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}

		c := cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: AllowedMethods,
			AllowedHeaders: AllowedHeaders,
		})

		return c.Handler
	}
}
