package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
port = 8080

[database]
host = "localhost"
name = "rsua"
user = "rsua"
password = "rsua"
ssl_mode = "disable"

[storage]
connection_string = "UseDevelopmentStorage=true"

[auth]
issuer = "https://sso.rsua.example/realms/rsua"
client_id = "rsua-incidents"

[models]
classifier_path = "models/incident_classifier.onnx"
warm_on_start = true

[api.pagination]
default_page_size = 25
max_page_size = 50
`

const overlayConfig = `
[server]
port = 9090

[models]
fallback_version = "fallback-rule-0.2"
`

func writeConfig(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(dir)
}

func TestLoad(t *testing.T) {
	writeConfig(t, map[string]string{config.BaseConfigFile: baseConfig})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %s", cfg.Server.Addr())
	}
	if cfg.Storage.ContainerName != "attachments" {
		t.Errorf("container = %s, want attachments", cfg.Storage.ContainerName)
	}
	if cfg.Auth.RolesClaim != "roles" || cfg.Auth.DepartmentClaim != "department_id" {
		t.Errorf("auth claims = %s, %s", cfg.Auth.RolesClaim, cfg.Auth.DepartmentClaim)
	}
	if cfg.Models.FallbackVersion != "fallback-rule-0.1" || !cfg.Models.WarmOnStart || cfg.Models.SequenceLength != 128 {
		t.Errorf("models = %+v", cfg.Models)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 || cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination = %+v", cfg.API.Pagination)
	}
	if cfg.API.BasePath != "/api" || cfg.API.MaxUploadSizeBytes() != 10*1024*1024 {
		t.Errorf("api = %+v", cfg.API)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	writeConfig(t, map[string]string{
		config.BaseConfigFile: baseConfig,
		"config.staging.toml": overlayConfig,
	})
	t.Setenv(config.EnvRSUAEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Models.FallbackVersion != "fallback-rule-0.2" {
		t.Errorf("fallback version = %s", cfg.Models.FallbackVersion)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("base value lost: host = %s", cfg.Database.Host)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	writeConfig(t, map[string]string{config.BaseConfigFile: baseConfig})
	t.Setenv("RSUA_VERSION", "2.0.0")
	t.Setenv("RSUA_SERVER_PORT", "3000")
	t.Setenv("RSUA_MODEL_PATH", "/srv/models/clf.onnx")
	t.Setenv("RSUA_AUTH_ROLES_CLAIM", "realm_access.roles")
	t.Setenv("RSUA_API_MAX_UPLOAD_SIZE", "2MB")

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != "2.0.0" || cfg.Server.Port != 3000 {
		t.Errorf("version/port = %s/%d", cfg.Version, cfg.Server.Port)
	}
	if cfg.Models.ClassifierPath != "/srv/models/clf.onnx" {
		t.Errorf("classifier path = %s", cfg.Models.ClassifierPath)
	}
	if cfg.Auth.RolesClaim != "realm_access.roles" {
		t.Errorf("roles claim = %s", cfg.Auth.RolesClaim)
	}
	if cfg.API.MaxUploadSizeBytes() != 2*1024*1024 {
		t.Errorf("max upload = %d", cfg.API.MaxUploadSizeBytes())
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	writeConfig(t, nil)
	t.Setenv("RSUA_DB_NAME", "rsua")
	t.Setenv("RSUA_DB_USER", "rsua")
	t.Setenv("RSUA_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("RSUA_AUTH_ISSUER", "https://sso.rsua.example")
	t.Setenv("RSUA_AUTH_CLIENT_ID", "rsua-incidents")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout = %s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Env() != "local" {
		t.Errorf("env = %s, want local", cfg.Env())
	}
}

func TestLoadMissingIssuer(t *testing.T) {
	writeConfig(t, nil)
	t.Setenv("RSUA_DB_NAME", "rsua")
	t.Setenv("RSUA_DB_USER", "rsua")
	t.Setenv("RSUA_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected auth validation error")
	}
}

func TestLoadInvalidSequenceLength(t *testing.T) {
	writeConfig(t, map[string]string{config.BaseConfigFile: baseConfig})
	t.Setenv("RSUA_ENCODER_SEQUENCE_LENGTH", "4")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected sequence length validation error")
	}
}

func TestLoadInvalidToml(t *testing.T) {
	writeConfig(t, map[string]string{config.BaseConfigFile: "[server\nport = "})

	if _, err := config.Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadUnknownKey(t *testing.T) {
	writeConfig(t, map[string]string{config.BaseConfigFile: `
shutdown_timout = "10s"

[models]
clasifier_path = "typo.onnx"
`})

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Fatalf("got %v, want unknown keys error", err)
	}
}

func TestServerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
	}{
		{"port out of range", config.ServerConfig{Port: 70000}},
		{"bad idle timeout", config.ServerConfig{IdleTimeout: "forever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestServerMergeAndDefaults(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", WriteTimeout: "5m"}
	cfg.Merge(&config.ServerConfig{Port: 9000, ReadHeaderTimeout: "3s"})

	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("addr = %s", cfg.Addr())
	}
	if cfg.ReadHeaderTimeoutDuration() != 3*time.Second {
		t.Errorf("read header timeout = %s", cfg.ReadHeaderTimeoutDuration())
	}
	if cfg.WriteTimeoutDuration() != 5*time.Minute {
		t.Errorf("write timeout = %s", cfg.WriteTimeoutDuration())
	}
	if cfg.IdleTimeoutDuration() != 2*time.Minute {
		t.Errorf("idle timeout = %s", cfg.IdleTimeoutDuration())
	}
}

func TestLoadDatabaseIgnoresOtherSections(t *testing.T) {
	writeConfig(t, map[string]string{config.BaseConfigFile: `
[database]
host = "db.rsua.local"
name = "rsua"
user = "rsua"
`})
	t.Setenv("RSUA_DB_PORT", "5433")

	db, err := config.LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() error = %v", err)
	}
	if db.Host != "db.rsua.local" || db.Port != 5433 {
		t.Errorf("database = %s:%d", db.Host, db.Port)
	}
}
