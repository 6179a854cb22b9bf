package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	jwtRequest "github.com/golang-jwt/jwt/v4/request"
	"github.com/mitchellh/mapstructure"
	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware"
	"github.com/osstotalsoft/edge-gateway/strutils"
	"github.com/osstotalsoft/oidc-jwt-go"
	"github.com/osstotalsoft/oidc-jwt-go/discovery"
	"go.uber.org/zap"
)

//AuthorizationFilterCode is the code used to register this middleware
const AuthorizationFilterCode = "auth"

//AuthorizationOptions are the options configured for all secured routes.
//They are immutable after gateway construction.
type AuthorizationOptions struct {
	//Authority is the trusted issuer identity
	Authority string `mapstructure:"authority"`
	Audience  string `mapstructure:"audience"`
	//TokenHeader names the request header carrying the bearer token.
	//Empty means the standard Authorization header.
	TokenHeader string `mapstructure:"token_header"`
	//Timeout bounds the whole validation call, identity provider key
	//fetch included. Zero means no bound.
	Timeout        time.Duration `mapstructure:"timeout"`
	SecretProvider oidc.SecretProvider
}

//AuthorizationRouteOptions are additional requirements a single route can configure
type AuthorizationRouteOptions struct {
	ClaimsRequirement map[string]string `mapstructure:"claims_requirement"`
	AllowedScopes     []string          `mapstructure:"allowed_scopes"`
}

//AuthorizationFilter validates the bearer token on every secured route
//before the request reaches its handler. Every failure mode denies the
//request: missing header, malformed or expired token, bad signature and
//an unreachable identity provider all fail closed.
func AuthorizationFilter(opts AuthorizationOptions) middleware.Func {
	return func(route abstraction.Route, loggerFactory log.Factory) func(http.Handler) http.Handler {
		cfg := AuthorizationRouteOptions{}
		if fl, ok := route.Filters[AuthorizationFilterCode]; ok {
			err := mapstructure.Decode(fl, &cfg)
			if err != nil {
				loggerFactory(nil).Error("AuthorizationFilter: cannot decode route options", zap.Error(err))
			}
		}

		if opts.SecretProvider == nil {
			opts.SecretProvider = oidc.NewOidcSecretProvider(discovery.NewClient(discovery.Options{Authority: opts.Authority}))
		}
		extractor := tokenExtractor(opts.TokenHeader)
		validator := oidc.NewJWTValidator(extractor, opts.SecretProvider, opts.Audience, opts.Authority)

		return func(next http.Handler) http.Handler {
			if !route.Secured {
				return next
			}
			return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				logger := loggerFactory(request.Context())

				ctx := request.Context()
				if opts.Timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
					defer cancel()
				}

				token, err := validateToken(ctx, validator, request)
				if err != nil {
					logger.Error("AuthorizationFilter: token is not valid", zap.Error(err))
					Unauthorized(writer)
					return
				}

				claims, ok := token.Claims.(jwt.MapClaims)
				if !ok {
					Unauthorized(writer)
					return
				}

				if len(cfg.AllowedScopes) > 0 {
					if len(strutils.Intersection(cfg.AllowedScopes, tokenScopes(claims))) == 0 {
						Forbidden(writer)
						return
					}
				}

				if !claimsSatisfied(cfg.ClaimsRequirement, claims) {
					Forbidden(writer)
					return
				}

				//the validation deadline must not travel with the request downstream
				claimsCtx := context.WithValue(request.Context(), abstraction.ContextClaimsKey, claims)
				next.ServeHTTP(writer, request.WithContext(claimsCtx))
			})
		}
	}
}

type validation struct {
	token *jwt.Token
	err   error
}

//validateToken runs the validator under the context deadline. The identity
//provider client carries no deadline of its own, so the bound has to be
//enforced here even when the provider call never returns.
func validateToken(ctx context.Context, validate func(*http.Request) (*jwt.Token, error), request *http.Request) (*jwt.Token, error) {
	done := make(chan validation, 1)
	go func() {
		token, err := validate(request.WithContext(ctx))
		done <- validation{token, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case v := <-done:
		return v.token, v.err
	}
}

func tokenExtractor(header string) jwtRequest.Extractor {
	if header == "" || header == "Authorization" {
		return jwtRequest.OAuth2Extractor
	}
	return jwtRequest.HeaderExtractor{header}
}

func tokenScopes(claims jwt.MapClaims) []string {
	var scopes []string
	switch sc := claims["scope"].(type) {
	case []interface{}:
		for _, s := range sc {
			if str, ok := s.(string); ok {
				scopes = append(scopes, str)
			}
		}
	case string:
		scopes = append(scopes, sc)
	}
	return scopes
}

func claimsSatisfied(requirement map[string]string, claims jwt.MapClaims) bool {
	for key, expected := range requirement {
		actual, ok := claims[key]
		if !ok || fmt.Sprintf("%v", actual) != expected {
			return false
		}
	}
	return true
}

func Unauthorized(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusUnauthorized)
	_, _ = writer.Write([]byte("Unauthorized"))
}

func Forbidden(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusForbidden)
	_, _ = writer.Write([]byte("Insufficient scopes."))
}
