package departments

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/query"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a department repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "departments"),
		pagination: pagination,
	}
}

func (r *repo) Handler(policy *access.Policy) *Handler {
	return NewHandler(r, policy, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Department], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count departments: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDepartment)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Department, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDepartment)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd Command) (*Department, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO departments(id, name, description)
		VALUES ($1, $2, $3)
		RETURNING ` + columns

	args := []any{uuid.New(), cmd.Name, cmd.Description}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Department, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDepartment)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("department created", "id", d.ID, "name", d.Name)
	return &d, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd Command) (*Department, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q := `
		UPDATE departments
		SET name = $1, description = $2, updated_at = now()
		WHERE id = $3
		RETURNING ` + columns

	args := []any{cmd.Name, cmd.Description, id}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Department, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDepartment)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("department updated", "id", d.ID, "name", d.Name)
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM departments WHERE id = $1", id)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("department deleted", "id", id)
	return nil
}
