package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/api"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/infrastructure"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/database"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "rsua",
			User:            "rsua",
			Password:        "rsua",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "attachments",
			ConnectionString: azuriteConnString,
		},
		Auth: auth.Config{
			Issuer:           "https://sso.rsua.example/realms/rsua",
			ClientID:         "rsua-incidents",
			RolesClaim:       "roles",
			DepartmentClaim:  "department_id",
			DiscoveryTimeout: "5s",
		},
		Models: classify.Config{
			ClassifierPath:    "models/incident_classifier.onnx",
			CodePredictorPath: "models/skp_mdp_predictor.onnx",
			EncoderPath:       "models/encoder",
			FallbackVersion:   "fallback-rule-0.1",
			SequenceLength:    128,
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "5MB",
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	m, err := api.NewModule(validConfig(), setupInfra(t))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestModuleRequiresToken(t *testing.T) {
	m, err := api.NewModule(validConfig(), setupInfra(t))
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []string{"/api/incidents", "/api/departments", "/api/attachments/incident/00000000-0000-0000-0000-000000000001"} {
		rec := httptest.NewRecorder()
		m.Serve(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want 401", target, rec.Code)
		}
	}
}

func TestNewRuntime(t *testing.T) {
	runtime, err := api.NewRuntime(validConfig(), setupInfra(t))
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.MaxUploadSize != 5*1024*1024 {
		t.Errorf("max upload size: got %d, want 5MiB", runtime.MaxUploadSize)
	}
	if runtime.Policy == nil {
		t.Error("runtime policy is nil")
	}
	if runtime.Auth == nil || runtime.Models == nil {
		t.Error("runtime auth or models missing")
	}
	if runtime.Database == nil || runtime.Storage == nil || runtime.Lifecycle == nil {
		t.Error("runtime infrastructure missing")
	}
}

func TestNewDomain(t *testing.T) {
	runtime, err := api.NewRuntime(validConfig(), setupInfra(t))
	if err != nil {
		t.Fatal(err)
	}

	domain := api.NewDomain(runtime)
	if domain.Incidents == nil || domain.Departments == nil || domain.Attachments == nil {
		t.Fatalf("domain systems missing: %+v", domain)
	}
}
