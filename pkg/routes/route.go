// Package routes declares HTTP route groups and registers them on a ServeMux.
package routes

import (
	"net/http"

	"github.com/JaimeStill/ineed/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. Middleware wraps only
// this route; Operation documents it in the OpenAPI spec.
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Middleware []func(http.Handler) http.Handler
	Operation  *openapi.Operation
}

func (r Route) handler(shared []func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = r.Handler
	for i := len(r.Middleware) - 1; i >= 0; i-- {
		h = r.Middleware[i](h)
	}
	for i := len(shared) - 1; i >= 0; i-- {
		h = shared[i](h)
	}
	return h
}
