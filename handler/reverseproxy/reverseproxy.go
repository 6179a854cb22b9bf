package reverseproxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/handler"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/router"
	"github.com/osstotalsoft/edge-gateway/strutils"
	"go.uber.org/zap"
)

//Options configure the proxy route target. The target address is resolved
//once at startup and assumed stable for the gateway's lifetime.
type Options struct {
	//TargetURL is the backend address, e.g. http://backend-lb.internal
	TargetURL string
	//PathTemplate is the upstream path with a single {proxy} placeholder
	//receiving the inbound path remainder after the prefix strip
	PathTemplate string
	//Timeout bounds the wait for the upstream response; an unresponsive
	//backend must not hold the request indefinitely
	Timeout time.Duration
}

//NewReverseProxy creates a new reverse proxy http.Handler for a route.
//The request is forwarded with its original method, headers, body and
//query string; the upstream status and body are relayed verbatim. No
//retries are performed. Connectivity failures map to 502 and an upstream
//timeout maps to 504.
func NewReverseProxy(opts Options, transport http.RoundTripper) handler.Func {
	return func(route abstraction.Route, loggerFactory log.Factory) http.Handler {
		target, err := url.Parse(opts.TargetURL)
		if err != nil {
			loggerFactory(nil).Panic("ReverseProxy: cannot parse target url",
				zap.String("target_url", opts.TargetURL), zap.Error(err))
			return nil
		}

		proxy := &httputil.ReverseProxy{
			Director:       getDirector(target, opts.PathTemplate, loggerFactory),
			ModifyResponse: modifyResponse,
			ErrorHandler:   getErrorHandler(loggerFactory),
			Transport:      transport,
		}

		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if opts.Timeout > 0 {
				ctx, cancel := context.WithTimeout(request.Context(), opts.Timeout)
				defer cancel()
				request = request.WithContext(ctx)
			}
			proxy.ServeHTTP(writer, request)
		})
	}
}

func modifyResponse(response *http.Response) error {
	//hack when upstream service has cors enabled; cors will be handled by the gateway
	response.Header.Del("Access-Control-Allow-Origin")
	return nil
}

func getDirector(target *url.URL, pathTemplate string, loggerFactory log.Factory) func(req *http.Request) {
	return func(req *http.Request) {
		logger := loggerFactory(req.Context())
		routeContext, _ := router.GetRouteContextFromRequestContext(req.Context())
		initial := req.URL.String()

		remainder := strings.TrimPrefix(req.URL.EscapedPath(), routeContext.PathPrefix)
		remainder = strings.TrimPrefix(remainder, "/")

		vars := map[string]string{"proxy": remainder}
		for key, val := range routeContext.Vars {
			vars[key] = val
		}

		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.Host = target.Host
		req.URL.Path = strutils.SingleJoiningSlash(target.Path, replaceVarsInTarget(pathTemplate, vars))

		targetQuery := target.RawQuery
		if targetQuery == "" || req.URL.RawQuery == "" {
			req.URL.RawQuery = targetQuery + req.URL.RawQuery
		} else {
			req.URL.RawQuery = targetQuery + "&" + req.URL.RawQuery
		}

		if _, ok := req.Header["User-Agent"]; !ok {
			// explicitly disable User-Agent so it's not set to default value
			req.Header.Set("User-Agent", "")
		}

		logger.Debug(fmt.Sprintf("Forwarding request from %v to %v", initial, req.URL.String()))
	}
}

func getErrorHandler(loggerFactory log.Factory) func(http.ResponseWriter, *http.Request, error) {
	return func(writer http.ResponseWriter, request *http.Request, err error) {
		logger := loggerFactory(request.Context())

		status := http.StatusBadGateway
		if isTimeout(err) {
			status = http.StatusGatewayTimeout
		}

		logger.Error("ReverseProxy: upstream call failed",
			zap.Int("status", status), zap.Error(err))
		writer.WriteHeader(status)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func replaceVarsInTarget(targetUrl string, vars map[string]string) string {
	for key, val := range vars {
		targetUrl = strings.Replace(targetUrl, "{"+key+"}", val, 1)
	}

	return targetUrl
}
