package attachments

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/incidents"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/query"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/repository"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

type repo struct {
	db        *sql.DB
	storage   storage.System
	incidents IncidentFinder
	logger    *slog.Logger
}

// New creates an attachment repository implementing the System interface.
func New(db *sql.DB, store storage.System, finder IncidentFinder, logger *slog.Logger) System {
	return &repo{
		db:        db,
		storage:   store,
		incidents: finder,
		logger:    logger.With("system", "attachments"),
	}
}

func (r *repo) Handler(policy *access.Policy, maxUploadSize int64) *Handler {
	return NewHandler(r, policy, r.logger, maxUploadSize)
}

func (r *repo) List(ctx context.Context, actor auth.Actor, incidentID uuid.UUID) ([]Attachment, error) {
	if _, err := r.incidents.Find(ctx, actor, incidentID); err != nil {
		return nil, err
	}

	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("IncidentID", incidentID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanAttachment)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	if items == nil {
		items = []Attachment{}
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Attachment, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAttachment)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if _, err := r.incidents.Find(ctx, actor, a.IncidentID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, actor auth.Actor, cmd CreateCommand) (*Attachment, error) {
	inc, err := r.incidents.Find(ctx, actor, cmd.IncidentID)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(actor, inc); err != nil {
		return nil, err
	}

	id := uuid.New()
	key := storage.Key("incidents", inc.ID.String(), id.String(), sanitizeFilename(cmd.Filename))

	if err := r.storage.Put(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("store attachment blob: %w", err)
	}

	q := `
		INSERT INTO incident_attachments(id, incident_id, filename, content_type, size_bytes, page_count, storage_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + columns

	args := []any{
		id,
		inc.ID,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
		actor.ID,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Attachment, error) {
		return repository.QueryOne(ctx, tx, q, args, scanAttachment)
	})
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("attachment stored", "id", a.ID, "incident", inc.ID, "filename", a.Filename, "size", a.SizeBytes)
	return &a, nil
}

func (r *repo) Open(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Attachment, *storage.Blob, error) {
	a, err := r.Find(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}

	b, err := r.storage.Get(ctx, a.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (r *repo) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	a, err := r.Find(ctx, actor, id)
	if err != nil {
		return err
	}

	inc, err := r.incidents.Find(ctx, actor, a.IncidentID)
	if err != nil {
		return err
	}
	if err := checkMutable(actor, inc); err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM incident_attachments WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, a.StorageKey); delErr != nil {
		r.logger.Warn("blob delete failed after row delete", "key", a.StorageKey, "error", delErr)
	}

	r.logger.Info("attachment deleted", "id", id, "incident", a.IncidentID)
	return nil
}

func checkMutable(actor auth.Actor, inc *incidents.Incident) error {
	if inc.ReporterID != actor.ID {
		return ErrForbidden
	}
	if inc.Status != taxonomy.StatusDraft {
		return fmt.Errorf("%w: incident is %s", ErrNotDraft, inc.Status)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "attachment"
	}
	return url.PathEscape(name)
}
