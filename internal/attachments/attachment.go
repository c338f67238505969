// Package attachments stores evidence files for incident drafts. File
// content lives in blob storage and metadata rows in PostgreSQL.
package attachments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/incidents"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
)

// Attachment is the metadata of one stored file.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	IncidentID  uuid.UUID `json:"incident_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CreateCommand carries a validated upload.
type CreateCommand struct {
	IncidentID  uuid.UUID
	Data        []byte
	Filename    string
	ContentType string
	PageCount   *int
}

// IncidentFinder resolves an incident on behalf of an actor, enforcing the
// incident's read access.
type IncidentFinder interface {
	Find(ctx context.Context, actor auth.Actor, id uuid.UUID) (*incidents.Incident, error)
}
