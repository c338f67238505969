// Package api assembles the API module: domain systems, route
// registration, and the authenticated middleware stack.
package api

import (
	"fmt"
	"net/http"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/infrastructure"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/middleware"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every route requires a verified bearer token.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, fmt.Errorf("api runtime: %w", err)
	}
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(runtime.Auth.Middleware())

	return m, nil
}
