package storage_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	sys, err := storage.New(&storage.Config{ContainerName: "attachments", ConnectionString: azuriteConnString}, discard())
	if err != nil || sys == nil {
		t.Fatalf("New() = %v, %v", sys, err)
	}

	if _, err := storage.New(&storage.Config{ContainerName: "attachments", ConnectionString: "nope"}, discard()); err == nil {
		t.Error("expected error for invalid connection string")
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"incidents/a/b.pdf", nil},
		{"incidents/a..b.pdf", nil},
		{"", storage.ErrEmptyKey},
		{"incidents/../secret", storage.ErrInvalidKey},
		{"..", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		if err := storage.ValidateKey(tt.key); !errors.Is(err, tt.want) {
			t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.want)
		}
	}
}

func TestKey(t *testing.T) {
	if got := storage.Key("incidents/", "", "/abc", "file.pdf"); got != "incidents/abc/file.pdf" {
		t.Errorf("Key() = %q", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_STORAGE_CONN", azuriteConnString)

	cfg := &storage.Config{}
	if err := cfg.Finalize(&storage.Env{ConnectionString: "TEST_STORAGE_CONN"}); err != nil {
		t.Fatal(err)
	}
	if cfg.ContainerName != "attachments" || cfg.ConnectionString != azuriteConnString {
		t.Errorf("unexpected config: %+v", cfg)
	}

	os.Unsetenv("TEST_STORAGE_CONN")
	if err := (&storage.Config{}).Finalize(&storage.Env{ConnectionString: "TEST_STORAGE_CONN"}); err == nil {
		t.Error("expected missing connection string error")
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := &storage.Config{ContainerName: "attachments", ConnectionString: "a"}
	cfg.Merge(&storage.Config{ContainerName: "evidence"})
	if cfg.ContainerName != "evidence" || cfg.ConnectionString != "a" {
		t.Errorf("merge: %+v", cfg)
	}
}
