package main

import (
	"context"
	"net/http"
	"time"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/api"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/infrastructure"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/handlers"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/module"
)

const readinessTimeout = 3 * time.Second

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failures := infra.Lifecycle.Check(ctx)
		if len(failures) > 0 {
			checks := make(map[string]string, len(failures))
			for name, err := range failures {
				checks[name] = err.Error()
			}
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"checks": checks,
			})
			return
		}

		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	return router
}
