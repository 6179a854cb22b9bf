package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/satori/go.uuid"
	"go.uber.org/zap"
)

// Route couples a routing rule with its compiled matcher and handler
type Route struct {
	UID string
	abstraction.Route
	matcher func(request *http.Request) RouteMatch
	handler http.Handler
}

// RouteMatch is the result of matching one inbound request against a route
type RouteMatch struct {
	Matched bool
	Vars    map[string]string
}

// RouteMatcherFunc compiles a routing rule into a request matcher
type RouteMatcherFunc func(route abstraction.Route) func(request *http.Request) RouteMatch

// Table is the gateway routing table. All routes are registered during
// startup; the table is read-only while serving, so no locking is needed.
type Table struct {
	routes        []Route
	routeMatcher  RouteMatcherFunc
	loggerFactory log.Factory
}

func NewTable(routeMatcher RouteMatcherFunc, loggerFactory log.Factory) *Table {
	return &Table{
		routeMatcher:  routeMatcher,
		loggerFactory: loggerFactory,
	}
}

// AddRoute registers a route. Call only during startup, before GetHandler.
func AddRoute(table *Table) func(route abstraction.Route, handler http.Handler) (string, error) {
	return func(route abstraction.Route, handler http.Handler) (string, error) {
		r := Route{
			UID:     uuid.NewV4().String(),
			Route:   route,
			matcher: table.routeMatcher(route),
			handler: handler,
		}

		if err := validateRoute(table, r); err != nil {
			table.loggerFactory(nil).Error("Router: invalid route", zap.Error(err))
			return "", err
		}

		table.routes = append(table.routes, r)
		table.loggerFactory(nil).Info("Router: added route",
			zap.String("route_id", r.UID),
			zap.String("path_prefix", route.PathPrefix),
			zap.String("path", route.Path))
		return r.UID, nil
	}
}

func validateRoute(table *Table, route Route) error {
	for _, r := range table.routes {
		if r.PathPrefix+r.Path == route.PathPrefix+route.Path {
			return errors.New("Router: multiple registrations for : " + route.PathPrefix + route.Path)
		}
	}
	return nil
}

// GetHandler returns the dispatching http.Handler. Unmatched requests get
// a plain not-found response.
func GetHandler(table *Table) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("X-Gateway", "EdgeGateway")

		route, routeMatch := matchRoute(table.routes, request)
		if !routeMatch.Matched {
			http.NotFound(writer, request)
			return
		}

		ctx := context.WithValue(request.Context(), ContextRouteKey, RouteContext{
			route.Path,
			route.PathPrefix,
			routeMatch.Vars,
		})

		route.handler.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func matchRoute(routes []Route, request *http.Request) (Route, RouteMatch) {
	for _, r := range routes {
		if rm := r.matcher(request); rm.Matched {
			return r, rm
		}
	}
	return Route{}, RouteMatch{}
}
