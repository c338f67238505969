package api

import (
	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/infrastructure"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// access policy shared by every handler.
type Runtime struct {
	*infrastructure.Infrastructure
	Policy        *access.Policy
	Pagination    pagination.Config
	MaxUploadSize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	policy, err := access.New(access.DefaultRules, logger)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Auth:      infra.Auth,
			Models:    infra.Models,
		},
		Policy:        policy,
		Pagination:    cfg.API.Pagination,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
	}, nil
}
