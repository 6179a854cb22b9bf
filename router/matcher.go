package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/osstotalsoft/edge-gateway/abstraction"
)

// GorillaMuxRouteMatcher compiles a routing rule into a matcher backed by
// a gorilla/mux route. An empty Methods slice matches any method.
func GorillaMuxRouteMatcher(route abstraction.Route) func(request *http.Request) RouteMatch {
	rr := new(mux.Route)

	if route.PathPrefix != "" {
		rr = rr.PathPrefix(route.PathPrefix)
	}
	if route.Path != "" {
		rr = rr.Path(route.Path)
	}
	if len(route.Methods) > 0 {
		rr = rr.Methods(route.Methods...)
	}

	return func(request *http.Request) RouteMatch {
		var match mux.RouteMatch
		b := rr.Match(request, &match)
		return RouteMatch{b, match.Vars}
	}
}
