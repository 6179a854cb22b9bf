package handler

import (
	"net/http"

	"github.com/osstotalsoft/edge-gateway/abstraction"
	"github.com/osstotalsoft/edge-gateway/log"
)

//Func is a signature that each handler must implement
type Func func(route abstraction.Route, loggerFactory log.Factory) http.Handler

//Compose Funcs
func Compose(funcs ...func(f Func) Func) func(f Func) Func {
	return func(m Func) Func {
		for _, f := range funcs {
			m = f(m)
		}
		return m
	}
}
