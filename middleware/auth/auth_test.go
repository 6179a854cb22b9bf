package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/oidc-jwt-go"
	"go.uber.org/zap"
)

const authority = "https://identity.example.com"
const audience = "edge.api"

var securedRoute = abstraction.Route{
	Name:        "api-proxy",
	PathPrefix:  "/api/v1",
	Secured:     true,
	HandlerType: abstraction.ReverseProxyHandlerType,
}

func newKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tokenString
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   authority,
		"aud":   []string{audience},
		"sub":   "c8124881-ad67-443e-9473-08d5777d1ba8",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": []string{"edge.read", "edge.write"},
	}
}

func newFilter(key *rsa.PrivateKey, route abstraction.Route) func(http.Handler) http.Handler {
	logger, _ := zap.NewDevelopment()
	opts := AuthorizationOptions{
		Authority:      authority,
		Audience:       audience,
		SecretProvider: oidc.NewKeyProvider(&key.PublicKey),
	}
	return AuthorizationFilter(opts)(route, log.ZapLoggerFactory(logger))
}

func TestAuthorizationFilterValidToken(t *testing.T) {
	key := newKeyPair(t)
	tokenString := signToken(t, key, validClaims())

	var gotClaims interface{}
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = r.Context().Value(abstraction.ContextClaimsKey)
		_, _ = io.WriteString(w, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	req.Header.Add("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	newFilter(key, securedRoute)(backend).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("request failed, status: %d body: %s", w.Code, w.Body.String())
	}
	if gotClaims == nil {
		t.Error("claims were not attached to the request context")
	}
}

func TestAuthorizationFilterMissingToken(t *testing.T) {
	key := newKeyPair(t)

	backendContacted := false
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendContacted = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	w := httptest.NewRecorder()
	newFilter(key, securedRoute)(backend).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if backendContacted {
		t.Error("backend was contacted without a valid token")
	}
}

func TestAuthorizationFilterExpiredToken(t *testing.T) {
	key := newKeyPair(t)
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	tokenString := signToken(t, key, claims)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	req.Header.Add("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	newFilter(key, securedRoute)(http.NotFoundHandler()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestAuthorizationFilterWrongSigningKey(t *testing.T) {
	key := newKeyPair(t)
	other := newKeyPair(t)
	tokenString := signToken(t, other, validClaims())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	req.Header.Add("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	newFilter(key, securedRoute)(http.NotFoundHandler()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad signature, got %d", w.Code)
	}
}

func TestAuthorizationFilterScopeRequirement(t *testing.T) {
	key := newKeyPair(t)
	route := securedRoute
	route.Filters = map[string]interface{}{
		AuthorizationFilterCode: AuthorizationRouteOptions{
			AllowedScopes: []string{"edge.admin"},
		},
	}
	tokenString := signToken(t, key, validClaims())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	req.Header.Add("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	newFilter(key, route)(http.NotFoundHandler()).ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for missing scope, got %d", w.Code)
	}
}

func TestAuthorizationFilterUnsecuredRouteBypass(t *testing.T) {
	key := newKeyPair(t)
	route := abstraction.Route{Name: "client-config", Path: "/config/v1", Secured: false}

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/config/v1", nil)
	w := httptest.NewRecorder()
	newFilter(key, route)(backend).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("unsecured route must not require a token, got %d", w.Code)
	}
}

func TestAuthorizationFilterIdentityProviderUnreachable(t *testing.T) {
	key := newKeyPair(t)
	tokenString := signToken(t, key, validClaims())

	logger, _ := zap.NewDevelopment()
	// no SecretProvider, so keys are fetched from the authority, which is down
	opts := AuthorizationOptions{
		Authority: "http://127.0.0.1:1",
		Audience:  audience,
	}
	filter := AuthorizationFilter(opts)(securedRoute, log.ZapLoggerFactory(logger))

	backendContacted := false
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendContacted = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	req.Header.Add("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	filter(backend).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("must fail closed when the identity provider is unreachable, got %d", w.Code)
	}
	if backendContacted {
		t.Error("backend was contacted while the identity provider was unreachable")
	}
}

// stallingSecretProvider blocks every key lookup until released,
// simulating an identity provider that accepts the connection but
// never answers.
type stallingSecretProvider struct {
	release chan struct{}
}

func (p stallingSecretProvider) GetSecret(tokenKeyId string) (*rsa.PublicKey, error) {
	<-p.release
	return nil, errors.New("released")
}

func TestAuthorizationFilterBoundsIdentityProviderCall(t *testing.T) {
	key := newKeyPair(t)
	tokenString := signToken(t, key, validClaims())

	release := make(chan struct{})
	defer close(release)

	logger, _ := zap.NewDevelopment()
	opts := AuthorizationOptions{
		Authority:      authority,
		Audience:       audience,
		Timeout:        100 * time.Millisecond,
		SecretProvider: stallingSecretProvider{release: release},
	}
	filter := AuthorizationFilter(opts)(securedRoute, log.ZapLoggerFactory(logger))

	backendContacted := false
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendContacted = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	req.Header.Add("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	start := time.Now()
	filter(backend).ServeHTTP(w, req)
	elapsed := time.Since(start)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("must fail closed when the identity provider stalls, got %d", w.Code)
	}
	if backendContacted {
		t.Error("backend was contacted while the identity provider was stalling")
	}
	if elapsed > 5*time.Second {
		t.Errorf("validation was not bounded by the configured timeout, took %v", elapsed)
	}
}

func TestAuthorizationFilterCustomTokenHeader(t *testing.T) {
	key := newKeyPair(t)
	tokenString := signToken(t, key, validClaims())

	logger, _ := zap.NewDevelopment()
	opts := AuthorizationOptions{
		Authority:      authority,
		Audience:       audience,
		TokenHeader:    "X-Auth-Id",
		SecretProvider: oidc.NewKeyProvider(&key.PublicKey),
	}
	filter := AuthorizationFilter(opts)(securedRoute, log.ZapLoggerFactory(logger))

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	req.Header.Add("X-Auth-Id", tokenString)
	w := httptest.NewRecorder()
	filter(backend).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("token in configured header rejected, status %d", w.Code)
	}
}
