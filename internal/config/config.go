// Package config loads the service configuration from config.toml, an
// optional per-environment overlay, and RSUA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/database"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRSUAEnv             = "RSUA_ENV"
	EnvRSUAShutdownTimeout = "RSUA_SHUTDOWN_TIMEOUT"
	EnvRSUAVersion         = "RSUA_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "RSUA_DB_HOST",
	Port:            "RSUA_DB_PORT",
	Name:            "RSUA_DB_NAME",
	User:            "RSUA_DB_USER",
	Password:        "RSUA_DB_PASSWORD",
	SSLMode:         "RSUA_DB_SSL_MODE",
	ApplicationName: "RSUA_DB_APPLICATION_NAME",
	MaxOpenConns:    "RSUA_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "RSUA_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "RSUA_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "RSUA_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "RSUA_STORAGE_CONTAINER_NAME",
	ConnectionString: "RSUA_STORAGE_CONNECTION_STRING",
}

var authEnv = &auth.Env{
	Issuer:            "RSUA_AUTH_ISSUER",
	ClientID:          "RSUA_AUTH_CLIENT_ID",
	RolesClaim:        "RSUA_AUTH_ROLES_CLAIM",
	DepartmentClaim:   "RSUA_AUTH_DEPARTMENT_CLAIM",
	SkipClientIDCheck: "RSUA_AUTH_SKIP_CLIENT_ID_CHECK",
	DiscoveryTimeout:  "RSUA_AUTH_DISCOVERY_TIMEOUT",
	DiscoveryRetry:    "RSUA_AUTH_DISCOVERY_RETRY",
}

var modelsEnv = &classify.Env{
	ClassifierPath:    "RSUA_MODEL_PATH",
	CodePredictorPath: "RSUA_SKP_MDP_MODEL_PATH",
	EncoderPath:       "RSUA_ENCODER_PATH",
	FallbackVersion:   "RSUA_MODEL_FALLBACK_VERSION",
	RuntimeLibrary:    "ONNXRUNTIME_SHARED_LIBRARY_PATH",
	SequenceLength:    "RSUA_ENCODER_SEQUENCE_LENGTH",
	WarmOnStart:       "RSUA_MODELS_WARM_ON_START",
}

// Config is the root configuration for the incident service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Auth            auth.Config     `toml:"auth"`
	Models          classify.Config `toml:"models"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the RSUA_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRSUAEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return durationOf(c.ShutdownTimeout)
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Without config.toml, defaults and environment
// variables provide everything.
func Load() (*Config, error) {
	cfg, overlay, err := readFiles()
	if err != nil {
		return nil, err
	}
	if overlay != nil {
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// LoadDatabase resolves only the database section, from the same files and
// environment as Load. Tools that just need a connection use it.
func LoadDatabase() (*database.Config, error) {
	cfg, overlay, err := readFiles()
	if err != nil {
		return nil, err
	}
	if overlay != nil {
		cfg.Database.Merge(&overlay.Database)
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &cfg.Database, nil
}

// readFiles decodes config.toml and the RSUA_ENV overlay. Either may be
// absent; a missing base yields an empty Config and a missing overlay nil.
func readFiles() (base, overlay *Config, err error) {
	base = &Config{}
	if _, statErr := os.Stat(BaseConfigFile); statErr == nil {
		if base, err = load(BaseConfigFile); err != nil {
			return nil, nil, err
		}
	}

	if path := overlayPath(); path != "" {
		if overlay, err = load(path); err != nil {
			return nil, nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
	}
	return base, overlay, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Auth.Merge(&overlay.Auth)
	c.Models.Merge(&overlay.Models)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", func() error { return c.Server.Finalize(serverEnv) }},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
		{"models", func() error { return c.Models.Finalize(modelsEnv) }},
		{"api", c.API.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvRSUAShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvRSUAVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// load decodes path strictly: a key that maps to no field is an error,
// which catches misspelled settings at startup.
func load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvRSUAEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
