// Package storage keeps incident attachment blobs in Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/lifecycle"
)

// Blob is an open blob stream. The caller must close Body.
type Blob struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// System stores and retrieves blobs by key.
type System interface {
	// Start ensures the container exists once the process starts and
	// registers a readiness probe against it.
	Start(lc *lifecycle.Coordinator) error
	// Put streams r to key with the given content type.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get opens the blob at key. Returns ErrNotFound for a missing blob.
	Get(ctx context.Context, key string) (*Blob, error)
	// Delete removes the blob at key. Returns ErrNotFound for a missing blob.
	Delete(ctx context.Context, key string) error
}

type azureStore struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New creates an Azure-backed System. No request is made until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azureStore{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage"),
	}, nil
}

func (s *azureStore) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		_, err := s.client.CreateContainer(lc.Context(), s.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			s.logger.Error("attachment container unavailable", "container", s.container, "error", err)
			return
		}
		s.logger.Info("attachment container ready", "container", s.container)
	})

	lc.AddProbe("storage", func(ctx context.Context) error {
		_, err := s.client.ServiceClient().NewContainerClient(s.container).GetProperties(ctx, nil)
		return err
	})
	return nil
}

func (s *azureStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.UploadStream(ctx, s.container, key, r, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

func (s *azureStore) Get(ctx context.Context, key string) (*Blob, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}

	b := &Blob{Body: resp.Body}
	if resp.ContentType != nil {
		b.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		b.Size = *resp.ContentLength
	}
	return b, nil
}

func (s *azureStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// Key joins segments into a blob key. Empty segments are dropped.
func Key(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return path.Join(parts...)
}

// ValidateKey rejects empty keys and keys with a ".." segment.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
