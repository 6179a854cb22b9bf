package audit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"go.uber.org/zap"
)

var auditedRoute = abstraction.Route{
	Name:        "api-proxy",
	PathPrefix:  "/api/v1",
	Secured:     true,
	HandlerType: abstraction.ReverseProxyHandlerType,
}

type memoryPublisher struct {
	events []Event
	err    error
}

func (p *memoryPublisher) Publish(event Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newFilter(publisher EventPublisher) func(http.Handler) http.Handler {
	logger, _ := zap.NewDevelopment()
	return AuditFilter(publisher)(auditedRoute, log.ZapLoggerFactory(logger))
}

func TestAuditFilterRecordsResponseStatus(t *testing.T) {
	publisher := &memoryPublisher{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "Unauthorized")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/7", nil)
	ctx := context.WithValue(req.Context(), abstraction.ContextRequestIDKey, "rid-1")
	w := httptest.NewRecorder()
	newFilter(publisher)(inner).ServeHTTP(w, req.WithContext(ctx))

	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Status != http.StatusUnauthorized {
		t.Errorf("event status: %d", event.Status)
	}
	if event.Route != "api-proxy" || event.Method != http.MethodGet || event.Path != "/api/v1/widgets/7" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.RequestID != "rid-1" {
		t.Errorf("event request id: %q", event.RequestID)
	}
}

func TestAuditFilterDefaultsToStatusOK(t *testing.T) {
	publisher := &memoryPublisher{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})

	w := httptest.NewRecorder()
	newFilter(publisher)(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/widgets", nil))

	if len(publisher.events) != 1 || publisher.events[0].Status != http.StatusOK {
		t.Errorf("implicit 200 was not recorded: %+v", publisher.events)
	}
}

func TestAuditFilterPublishFailureDoesNotAffectResponse(t *testing.T) {
	publisher := &memoryPublisher{err: errors.New("nats is down")}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, "stored")
	})

	w := httptest.NewRecorder()
	newFilter(publisher)(inner).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/items/42", nil))

	if w.Code != http.StatusAccepted {
		t.Errorf("publish failure leaked into the response, status %d", w.Code)
	}
	if w.Body.String() != "stored" {
		t.Errorf("publish failure altered the body: %q", w.Body.String())
	}
}

func TestAuditFilterKeepsFlusher(t *testing.T) {
	publisher := &memoryPublisher{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("recorder hides the flusher from streaming handlers")
		}
		_, _ = io.WriteString(w, "chunk")
		flusher.Flush()
	})

	w := httptest.NewRecorder()
	newFilter(publisher)(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stream", nil))

	if !w.Flushed {
		t.Error("flush did not reach the underlying writer")
	}
}
