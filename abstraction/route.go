package abstraction

type contextKey string

// ContextClaimsKey is the request context key under which the authorizer
// stores the validated token claims
const ContextClaimsKey = contextKey("ContextClaimsKey")

// ContextRequestIDKey is the request context key holding the request correlation id
const ContextRequestIDKey = contextKey("ContextRequestIDKey")

// HandlerType names for the gateway handler registry
const (
	LocalHandlerType        = "local"
	ReverseProxyHandlerType = "reverseproxy"
)

// Route stores the gateway configuration for one routing decision and is
// passed to all handlers and middleware. Routes are built once at startup
// and never mutated afterwards.
type Route struct {
	Name        string
	Path        string
	PathPrefix  string
	Methods     []string
	Secured     bool
	HandlerType string
	Filters     map[string]interface{}
}
