package clientconfig

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/handler"
	"github.com/osstotalsoft/edge-gateway/log"
	"github.com/osstotalsoft/edge-gateway/strutils"
	"go.uber.org/zap"
)

//DefaultMarker is the prefix a setting must carry to be exposed to clients
const DefaultMarker = "APP_CONFIG_"

//Options configure the client config document source. Environ is an
//explicit snapshot provider (usually os.Environ) so the handler stays
//independently testable and never reads ambient process state directly.
type Options struct {
	Marker  string
	Environ func() []string
}

//NewClientConfig serves the client bootstrap settings document: a flat
//JSON object built from the marker-prefixed entries of the environment,
//keys lower-camel-cased with the marker stripped. The handler is
//unauthenticated and has no dependency on the authorizer or the backend.
func NewClientConfig(opts Options) handler.Func {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}

	return func(route abstraction.Route, loggerFactory log.Factory) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodGet {
				http.Error(writer, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
				return
			}

			document := buildDocument(opts.Environ(), opts.Marker)

			writer.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(writer).Encode(document); err != nil {
				loggerFactory(request.Context()).Error("ClientConfig: cannot encode document", zap.Error(err))
				http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}

//buildDocument keeps only marker-prefixed entries; nothing else from the
//process environment may leak into the document.
func buildDocument(environ []string, marker string) map[string]string {
	document := map[string]string{}
	for _, entry := range environ {
		if !strings.HasPrefix(entry, marker) {
			continue
		}
		kv := strings.SplitN(strings.TrimPrefix(entry, marker), "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}
		document[strutils.LowerCamelCase(kv[0])] = kv[1]
	}
	return document
}
