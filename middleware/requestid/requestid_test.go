package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"go.uber.org/zap"
)

func newFilter() func(http.Handler) http.Handler {
	logger, _ := zap.NewDevelopment()
	return RequestIDFilter()(abstraction.Route{}, log.ZapLoggerFactory(logger))
}

func TestRequestIDAssigned(t *testing.T) {
	var ctxID interface{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = r.Context().Value(abstraction.ContextRequestIDKey)
	})

	w := httptest.NewRecorder()
	newFilter()(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config/v1", nil))

	rid := w.Header().Get(HeaderName)
	if rid == "" {
		t.Fatal("no request id assigned")
	}
	if ctxID != rid {
		t.Errorf("context id %v differs from header %q", ctxID, rid)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/config/v1", nil)
	req.Header.Set(HeaderName, "caller-supplied-id")
	w := httptest.NewRecorder()
	newFilter()(inner).ServeHTTP(w, req)

	if rid := w.Header().Get(HeaderName); rid != "caller-supplied-id" {
		t.Errorf("caller supplied id replaced with %q", rid)
	}
}
