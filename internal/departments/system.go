package departments

import (
	"context"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
)

// System defines the public contract for department operations.
type System interface {
	Handler(policy *access.Policy) *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Department], error)
	Find(ctx context.Context, id uuid.UUID) (*Department, error)
	Create(ctx context.Context, cmd Command) (*Department, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Department, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
