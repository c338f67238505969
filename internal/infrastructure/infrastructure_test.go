package infrastructure_test

import (
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/infrastructure"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/database"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
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
		Version: "0.1.0",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil {
		t.Error("Database is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
	if infra.Auth == nil {
		t.Error("Auth is nil")
	}
	if infra.Models == nil || infra.Models.Classifier == nil || infra.Models.Codes == nil {
		t.Error("Models not wired")
	}
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	_, err := infrastructure.New(cfg)
	if err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}
