// Package infrastructure assembles the process-wide systems every domain
// depends on: lifecycle coordination, logging, PostgreSQL, attachment
// storage, token verification, and the ONNX incident models.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/database"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/lifecycle"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Auth      auth.System
	Models    *classify.Models
}

// New creates an Infrastructure from the application configuration.
// Nothing is contacted or loaded until Start.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Auth:      auth.New(&cfg.Auth, logger),
		Models:    classify.NewModels(&cfg.Models, logger),
	}, nil
}

// Start registers every system with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Auth.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("auth start failed: %w", err)
	}
	if err := i.Models.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("models start failed: %w", err)
	}
	return nil
}
