package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/config"
	"github.com/osstotalsoft/edge-gateway/gateway"
	"github.com/osstotalsoft/edge-gateway/handler"
	"github.com/osstotalsoft/edge-gateway/handler/clientconfig"
	"github.com/osstotalsoft/edge-gateway/handler/reverseproxy"
	"github.com/osstotalsoft/edge-gateway/httputils"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware/audit"
	"github.com/osstotalsoft/edge-gateway/middleware/auth"
	"github.com/osstotalsoft/edge-gateway/middleware/cors"
	"github.com/osstotalsoft/edge-gateway/middleware/ratelimit"
	"github.com/osstotalsoft/edge-gateway/middleware/requestid"
	"github.com/osstotalsoft/edge-gateway/privatelink"
	"github.com/osstotalsoft/edge-gateway/tracing"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	zapLogger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = zapLogger.Sync() }()

	loggerFactory := tracing.SpanLoggerFactory(log.ZapLoggerFactory(zapLogger))
	logger := loggerFactory(nil)

	closer, err := tracing.InitJaeger("edge-gateway")
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer func() { _ = closer.Close() }()
	}

	transport, err := privatelink.NewTransport(privatelinkOptions(cfg))
	if err != nil {
		logger.Fatal("cannot build private link transport", zap.Error(err))
	}

	gate := gateway.NewGateway(cfg, loggerFactory)

	gateway.RegisterHandler(gate)(abstraction.ReverseProxyHandlerType,
		handler.Compose(tracing.HandlerSpanWrapper("reverse-proxy"))(reverseproxy.NewReverseProxy(
			reverseproxy.Options{
				TargetURL:    cfg.Upstream.Address,
				PathTemplate: cfg.Upstream.PathTemplate,
				Timeout:      cfg.Upstream.Timeout,
			},
			tracing.NewRoundTripperWithOpenTracing(transport),
		)))
	gateway.RegisterHandler(gate)(abstraction.LocalHandlerType, clientconfig.NewClientConfig(
		clientconfig.Options{Environ: os.Environ},
	))

	if cfg.RateLimit.Enabled {
		gateway.UseMiddleware(gate)(ratelimit.RateLimitingFilterCode, ratelimit.RateLimiting(cfg.RateLimit.Limit))
	}
	//audit is registered ahead of auth so denied requests are recorded too
	if cfg.Audit.Enabled {
		publisher, closeConnection, err := audit.NewPublisher(audit.Config{
			NatsURL:  cfg.Audit.NatsURL,
			Cluster:  cfg.Audit.Cluster,
			ClientID: cfg.Audit.ClientID,
			Topic:    cfg.Audit.Topic,
		})
		if err != nil {
			logger.Fatal("cannot connect audit publisher", zap.Error(err))
		}
		defer closeConnection()
		gateway.UseMiddleware(gate)(audit.AuditFilterCode, audit.AuditFilter(publisher))
	}
	gateway.UseMiddleware(gate)(auth.AuthorizationFilterCode,
		tracing.MiddlewareSpanWrapper("authorization")(auth.AuthorizationFilter(auth.AuthorizationOptions{
			Authority:   cfg.Auth.Authority,
			Audience:    cfg.Auth.Audience,
			TokenHeader: cfg.Auth.TokenHeader,
			Timeout:     cfg.Auth.Timeout,
		})))

	//Compose applies inner to outer; cors stays outermost so every
	//response, the not-found and error ones included, carries the policy
	//headers
	entryRoute := abstraction.Route{}
	gateway.UseEntryFilter(gate)(httputils.Compose(
		tracing.SpanWrapper,
		httputils.RecoveryHandler(loggerFactory),
		requestid.RequestIDFilter()(entryRoute, loggerFactory),
		cors.CORSFilter(cors.Options{AllowedOrigins: cfg.Cors.AllowedOrigins})(entryRoute, loggerFactory),
	))

	registerRoutes(gate, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gateway.ListenAndServe(ctx, gate, gateway.GetHandler(gate)); err != nil && err != http.ErrServerClosed {
		logger.Fatal("gateway stopped", zap.Error(err))
	}
}

func registerRoutes(gate *gateway.Gateway, cfg *config.Config, logger log.Logger) {
	routes := []abstraction.Route{
		{
			Name:        "client-config",
			Path:        cfg.ConfigPath,
			Methods:     []string{http.MethodGet},
			Secured:     false,
			HandlerType: abstraction.LocalHandlerType,
		},
		{
			Name:        "api-proxy",
			PathPrefix:  cfg.ProxyPathPrefix,
			Secured:     true,
			HandlerType: abstraction.ReverseProxyHandlerType,
		},
	}

	for _, route := range routes {
		if _, err := gateway.AddRoute(gate)(route); err != nil {
			logger.Fatal("cannot register route", zap.String("route", route.Name), zap.Error(err))
		}
	}
}

func privatelinkOptions(cfg *config.Config) privatelink.Options {
	opts := privatelink.DefaultOptions
	opts.BackendURL = cfg.Upstream.Address
	if cfg.Upstream.Timeout > 0 {
		opts.ResponseHeaderTimeout = cfg.Upstream.Timeout
	}
	return opts
}
