package middleware

import (
	"net/http"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
)

//Func is a signature that each middleware must implement
type Func func(route abstraction.Route, loggerFactory log.Factory) func(http.Handler) http.Handler
