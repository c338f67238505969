package api

import (
	"net/http"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	patterns := routes.Register(
		mux,
		domain.Incidents.Handler(runtime.Policy).Routes(),
		domain.Departments.Handler(runtime.Policy).Routes(),
		domain.Attachments.Handler(runtime.Policy, runtime.MaxUploadSize).Routes(),
	)
	runtime.Logger.Debug("api routes registered", "count", len(patterns), "routes", patterns)
}
