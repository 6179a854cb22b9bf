package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/config"
	"github.com/osstotalsoft/edge-gateway/handler"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware"
	"github.com/osstotalsoft/edge-gateway/router"
	"go.uber.org/zap"
)

//Gateway is the single entry point in front of the backend: it owns the
//routing table, the per-route middleware chain and the handler registry.
//All registration happens at startup; a running gateway is immutable.
type Gateway struct {
	config        *config.Config
	table         *router.Table
	middlewares   []middlewareTuple
	entryFilters  []func(http.Handler) http.Handler
	handlers      map[string]handler.Func
	loggerFactory log.Factory
}

type middlewareTuple struct {
	key        string
	middleware middleware.Func
}

func NewGateway(cfg *config.Config, loggerFactory log.Factory) *Gateway {
	if cfg == nil {
		loggerFactory(nil).Panic("Gateway: must provide a configuration")
	}
	return &Gateway{
		config:        cfg,
		table:         router.NewTable(router.GorillaMuxRouteMatcher, loggerFactory),
		handlers:      map[string]handler.Func{},
		loggerFactory: loggerFactory,
	}
}

//RegisterHandler binds a handler type to its factory
func RegisterHandler(gate *Gateway) func(key string, handlerFunc handler.Func) {
	return func(key string, handlerFunc handler.Func) {
		gate.handlers[key] = handlerFunc
	}
}

//UseMiddleware appends a middleware applied to every route, in
//registration order, outermost first
func UseMiddleware(gate *Gateway) func(key string, mwf middleware.Func) {
	return func(key string, mwf middleware.Func) {
		gate.middlewares = append(gate.middlewares, middlewareTuple{key, mwf})
	}
}

//UseEntryFilter appends a wrapper applied once around the whole routing
//table, in registration order, outermost first. CORS lives here so every
//response, the not-found and error ones included, carries the policy
//headers.
func UseEntryFilter(gate *Gateway) func(f func(http.Handler) http.Handler) {
	return func(f func(http.Handler) http.Handler) {
		gate.entryFilters = append(gate.entryFilters, f)
	}
}

//AddRoute registers a route with the handler its HandlerType names,
//wrapped in the middleware chain
func AddRoute(gate *Gateway) func(route abstraction.Route) (string, error) {
	return func(route abstraction.Route) (string, error) {
		handlerFunc, ok := gate.handlers[route.HandlerType]
		if !ok {
			return "", errors.New("Gateway: no handler registered for type " + route.HandlerType)
		}

		h := handlerFunc(route, gate.loggerFactory)
		for i := len(gate.middlewares) - 1; i >= 0; i-- {
			h = gate.middlewares[i].middleware(route, gate.loggerFactory)(h)
		}

		return router.AddRoute(gate.table)(route, h)
	}
}

//GetHandler returns the composed entry handler
func GetHandler(gate *Gateway) http.Handler {
	h := router.GetHandler(gate.table)
	for i := len(gate.entryFilters) - 1; i >= 0; i-- {
		h = gate.entryFilters[i](h)
	}
	return h
}

//BaseURL is the externally reachable address of the gateway, derived
//deterministically from its identity and deployment stage
func BaseURL(gate *Gateway) string {
	return "https://" + gate.config.GatewayID + "." + gate.config.Domain + "/" + gate.config.Stage
}

//ListenAndServe runs the gateway until the context is cancelled, then
//shuts down gracefully
func ListenAndServe(ctx context.Context, gate *Gateway, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(gate.config.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	gate.loggerFactory(nil).Info("Gateway: listening",
		zap.Int("port", gate.config.Port),
		zap.String("base_url", BaseURL(gate)))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
