// Package middleware provides composable net/http middleware: CORS, request
// logging, and panic recovery.
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// System is an ordered middleware stack. The first registered middleware is
// the outermost.
type System interface {
	Use(mw ...Func)
	Apply(handler http.Handler) http.Handler
}

type stack []Func

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw ...Func) {
	*s = append(*s, mw...)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(*s) - 1; i >= 0; i-- {
		handler = (*s)[i](handler)
	}
	return handler
}

// Noop returns next unchanged. It stands in for optional middleware that is
// switched off.
func Noop(next http.Handler) http.Handler {
	return next
}
