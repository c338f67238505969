package incidents

import (
	"context"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
)

// System defines the public contract for incident domain operations.
// Every operation acts on behalf of actor and enforces ownership and
// department visibility for it.
type System interface {
	Handler(policy *access.Policy) *Handler

	List(
		ctx context.Context,
		actor auth.Actor,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Incident], error)

	Find(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Incident, error)
	Create(ctx context.Context, actor auth.Actor, draft Draft) (*Incident, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, draft Draft) (*Incident, error)

	Submit(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Incident, error)
	UpdateCategory(ctx context.Context, actor auth.Actor, id uuid.UUID, category taxonomy.Category) (*Incident, error)
	Close(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Incident, error)

	Audit(ctx context.Context, actor auth.Actor, id uuid.UUID) ([]AuditRecord, error)
}
