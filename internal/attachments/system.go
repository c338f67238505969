package attachments

import (
	"context"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

// System defines the public contract for attachment operations. Reading
// follows the incident's read access; changes are limited to the
// reporter of a DRAFT incident.
type System interface {
	Handler(policy *access.Policy, maxUploadSize int64) *Handler

	List(ctx context.Context, actor auth.Actor, incidentID uuid.UUID) ([]Attachment, error)
	Find(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Attachment, error)
	Create(ctx context.Context, actor auth.Actor, cmd CreateCommand) (*Attachment, error)
	Open(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Attachment, *storage.Blob, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
}
