// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/middleware"
)

// Module serves an inner handler with its prefix stripped from the path.
type Module struct {
	prefix string
	inner  http.Handler
	stack  middleware.System
}

// New creates a Module for a single-segment prefix such as "/api".
// It panics on an empty, relative, or nested prefix.
func New(prefix string, inner http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		inner:  inner,
		stack:  middleware.New(),
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack. The first middleware added
// is the outermost.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack.Use(mw)
}

// Handler returns the inner handler wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.stack.Apply(m.inner)
}

// Serve strips the prefix from the request path and dispatches it through
// the middleware stack. "/api" and "/api/" both reach the inner "/".
func (m *Module) Serve(w http.ResponseWriter, r *http.Request) {
	inner := r.Clone(r.Context())
	inner.URL.Path = strings.TrimPrefix(r.URL.Path, m.prefix)
	if inner.URL.Path == "" {
		inner.URL.Path = "/"
	}
	inner.URL.RawPath = ""
	m.Handler().ServeHTTP(w, inner)
}

// Router dispatches to mounted modules and falls back to natively
// registered handlers for everything else. A trailing slash is ignored.
type Router struct {
	mux *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Mount routes the module's prefix and everything beneath it to the module.
func (rt *Router) Mount(m *Module) {
	rt.mux.HandleFunc(m.prefix, m.Serve)
	rt.mux.HandleFunc(m.prefix+"/", m.Serve)
}

// HandleNative registers a handler outside every module, such as health probes.
func (rt *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	rt.mux.HandleFunc(pattern, handler)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		r.URL.Path = strings.TrimSuffix(p, "/")
	}
	rt.mux.ServeHTTP(w, r)
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || len(prefix) == 1:
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
