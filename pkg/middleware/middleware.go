// Package middleware provides the HTTP middleware shared by modules:
// request logging, panic recovery, CORS, and an ordered stack to hold them.
package middleware

import "net/http"

// Func wraps a handler with cross-cutting behavior.
type Func = func(http.Handler) http.Handler

// System is an ordered middleware stack. The first Func added is the
// outermost when applied.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack []Func

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw Func) {
	*s = append(*s, mw)
}

func (s *stack) Len() int {
	return len(*s)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	return Chain(handler, *s...)
}

// Chain wraps h so that mws[0] runs first.
func Chain(h http.Handler, mws ...Func) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
