package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/nats-io/go-nats-streaming"
	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/middleware"
	"github.com/satori/go.uuid"
	"go.uber.org/zap"
)

//AuditFilterCode is the code used to register this middleware
const AuditFilterCode = "audit"

//Config holds the NATS Streaming connection settings
type Config struct {
	NatsURL  string `mapstructure:"nats_url"`
	Cluster  string `mapstructure:"cluster"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

//Event is the access record published for every request on an audited route
type Event struct {
	RequestID string    `json:"requestId"`
	Route     string    `json:"route"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

//EventPublisher sends access events to a durable sink
type EventPublisher interface {
	Publish(event Event) error
}

//CloseConnectionFunc closes the underlying NATS connection
type CloseConnectionFunc func()

//Publisher is the NATS Streaming backed EventPublisher
type Publisher struct {
	conn  stan.Conn
	topic string
}

func NewPublisher(config Config) (*Publisher, CloseConnectionFunc, error) {
	nc, err := stan.Connect(config.Cluster, config.ClientID+uuid.NewV4().String(), stan.NatsURL(config.NatsURL))
	if err != nil {
		return nil, func() {}, err
	}

	return &Publisher{conn: nc, topic: config.Topic}, func() { _ = nc.Close() }, nil
}

func (p *Publisher) Publish(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.topic, payload)
}

//AuditFilter publishes one Event per finished request, the denied ones
//included, so it must wrap the authorization filter. Publishing failures
//are logged and never affect the response already sent to the caller.
func AuditFilter(publisher EventPublisher) middleware.Func {
	return func(route abstraction.Route, loggerFactory log.Factory) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
				next.ServeHTTP(recorder, request)

				rid, _ := request.Context().Value(abstraction.ContextRequestIDKey).(string)
				event := Event{
					RequestID: rid,
					Route:     route.Name,
					Method:    request.Method,
					Path:      request.URL.Path,
					Status:    recorder.status,
					Timestamp: time.Now().UTC(),
				}

				if err := publisher.Publish(event); err != nil {
					loggerFactory(request.Context()).Error("AuditFilter: cannot publish event", zap.Error(err))
				}
			})
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

//Flush keeps streamed proxy responses flushable through the recorder
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := r.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("AuditFilter: response writer does not support hijacking")
}
