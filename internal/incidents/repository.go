package incidents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/grading"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/query"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/repository"
)

type repo struct {
	db         *sql.DB
	lifecycle  *Lifecycle
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an incident repository implementing the System interface.
func New(
	db *sql.DB,
	lifecycle *Lifecycle,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		lifecycle:  lifecycle,
		logger:     logger.With("system", "incidents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(policy *access.Policy) *Handler {
	return NewHandler(r, policy, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	actor auth.Actor,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Incident], error) {
	filters, err := scopeFilters(actor, filters)
	if err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, searchFields...)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count incidents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanIncident)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Incident, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	inc, err := repository.QueryOne(ctx, r.db, q, args, scanIncident)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if !canRead(actor, &inc) {
		return nil, fmt.Errorf("%w: incident belongs to another reporter", ErrForbidden)
	}
	return &inc, nil
}

func (r *repo) Create(ctx context.Context, actor auth.Actor, draft Draft) (*Incident, error) {
	if !actor.HasRole(taxonomy.RolePerawat) {
		return nil, fmt.Errorf("%w: only perawat may report incidents", ErrForbidden)
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	if draft.DepartmentID == nil {
		draft.DepartmentID = actor.DepartmentID
	}
	if draft.DepartmentID == nil {
		return nil, fmt.Errorf("%w: reporter has no department and none was given", ErrDepartmentRequired)
	}

	now := time.Now().UTC()
	inc := Incident{
		ID:         uuid.New(),
		ReporterID: actor.ID,
		OccurredAt: &now,
		Status:     taxonomy.StatusDraft,
	}
	draft.apply(&inc)

	q := `
		INSERT INTO incidents(
			id, reporter_id, description, occurred_at, department_id, harm_indicator, status,
			patient_name, patient_identifier, reporter_type, age, age_group, gender, payer_type,
			admission_at, incident_place, incident_subject, patient_context, responder_roles,
			immediate_action, has_similar_event)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + columns

	args := append([]any{
		inc.ID,
		inc.ReporterID,
		inc.Description,
		inc.OccurredAt,
		inc.DepartmentID,
		inc.HarmIndicator,
		inc.Status,
	}, detailArgs(inc.Details)...)

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Incident, error) {
		if err := lockGradingKeys(ctx, tx, incidentGradingKeys(&inc)); err != nil {
			return Incident{}, err
		}
		return repository.QueryOne(ctx, tx, q, args, scanIncident)
	})
	if err != nil {
		return nil, r.mapWriteError(err)
	}

	r.logger.Info("incident draft created", "id", created.ID, "reporter", actor.ID, "department", created.DepartmentID)
	return &created, nil
}

func (r *repo) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, draft Draft) (*Incident, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	q := `
		UPDATE incidents SET
			description = $2, occurred_at = $3, department_id = $4, harm_indicator = $5,
			patient_name = $6, patient_identifier = $7, reporter_type = $8, age = $9, age_group = $10,
			gender = $11, payer_type = $12, admission_at = $13, incident_place = $14,
			incident_subject = $15, patient_context = $16, responder_roles = $17,
			immediate_action = $18, has_similar_event = $19, updated_at = $20
		WHERE id = $1
		RETURNING ` + columns

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Incident, error) {
		inc, err := lockIncident(ctx, tx, id)
		if err != nil {
			return Incident{}, err
		}
		if inc.ReporterID != actor.ID {
			return Incident{}, fmt.Errorf("%w: cannot modify another reporter's incident", ErrForbidden)
		}
		if inc.Status != taxonomy.StatusDraft {
			return Incident{}, fmt.Errorf("%w: only DRAFT incidents can be edited", ErrInvalidState)
		}

		keys := incidentGradingKeys(&inc)
		draft.apply(&inc)
		if err := lockGradingKeys(ctx, tx, append(keys, incidentGradingKeys(&inc)...)); err != nil {
			return Incident{}, err
		}

		args := append([]any{
			inc.ID,
			inc.Description,
			inc.OccurredAt,
			inc.DepartmentID,
			inc.HarmIndicator,
		}, detailArgs(inc.Details)...)
		args = append(args, time.Now().UTC())

		return repository.QueryOne(ctx, tx, q, args, scanIncident)
	})
	if err != nil {
		return nil, r.mapWriteError(err)
	}

	r.logger.Info("incident draft updated", "id", id, "reporter", actor.ID)
	return &updated, nil
}

func (r *repo) Submit(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Incident, error) {
	return r.transition(ctx, id, func(s Session, inc *Incident) error {
		if inc.ReporterID != actor.ID {
			return fmt.Errorf("%w: cannot submit another reporter's incident", ErrForbidden)
		}
		return r.lifecycle.Submit(ctx, s, inc, actor)
	})
}

func (r *repo) UpdateCategory(ctx context.Context, actor auth.Actor, id uuid.UUID, category taxonomy.Category) (*Incident, error) {
	if !taxonomy.IsReviewer(actor.Roles) {
		return nil, fmt.Errorf("%w: only reviewers may set the final category", ErrForbidden)
	}
	if _, ok := taxonomy.ParseCategory(string(category)); !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	return r.transition(ctx, id, func(s Session, inc *Incident) error {
		return r.lifecycle.UpdateCategory(ctx, s, inc, actor, category)
	})
}

func (r *repo) Close(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Incident, error) {
	return r.transition(ctx, id, func(s Session, inc *Incident) error {
		return r.lifecycle.Close(ctx, s, inc, actor)
	})
}

func (r *repo) Audit(ctx context.Context, actor auth.Actor, id uuid.UUID) ([]AuditRecord, error) {
	if _, err := r.Find(ctx, actor, id); err != nil {
		return nil, err
	}

	q := `
		SELECT id, incident_id, actor_id, from_status, to_status, payload_diff, created_at
		FROM audit_logs
		WHERE incident_id = $1
		ORDER BY created_at ASC, id ASC`

	records, err := repository.QueryMany(ctx, r.db, q, []any{id}, scanAudit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	return records, nil
}

// transition runs fn against the row-locked incident and persists the
// workflow columns in the same transaction.
func (r *repo) transition(ctx context.Context, id uuid.UUID, fn func(Session, *Incident) error) (*Incident, error) {
	q := `
		UPDATE incidents SET
			predicted_category = $2, predicted_confidence = $3, model_version = $4,
			skp_code = $5, mdp_code = $6, grading = $7, final_category = $8,
			last_category_editor_id = $9, status = $10, updated_at = $11
		WHERE id = $1
		RETURNING ` + columns

	inc, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Incident, error) {
		inc, err := lockIncident(ctx, tx, id)
		if err != nil {
			return Incident{}, err
		}

		if err := fn(txSession{tx: tx}, &inc); err != nil {
			return Incident{}, err
		}

		return repository.QueryOne(ctx, tx, q, []any{
			inc.ID,
			inc.PredictedCategory,
			inc.PredictedConfidence,
			inc.ModelVersion,
			inc.SKPCode,
			inc.MDPCode,
			inc.Grading,
			inc.FinalCategory,
			inc.LastCategoryEditorID,
			inc.Status,
			inc.UpdatedAt,
		}, scanIncident)
	})
	if err != nil {
		return nil, r.mapWriteError(err)
	}
	return &inc, nil
}

func (r *repo) mapWriteError(err error) error {
	if repository.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown department", ErrInvalidInput)
	}
	if repository.IsCheckViolation(err) {
		return fmt.Errorf("%w: violates %s", ErrInvalidInput, repository.ConstraintName(err))
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

// gradingKeys names the advisory locks of a department over the UTC months
// touching [from, to]. Writes placing an incident in a month and the count
// taken when grading a submission there hold the same key.
func gradingKeys(departmentID uuid.UUID, from, to time.Time) []string {
	months := grading.UTCMonths(from, to)
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = fmt.Sprintf("grading:%s:%s", departmentID, m)
	}
	return keys
}

// incidentGradingKeys names the lock covering the month inc is counted in.
func incidentGradingKeys(inc *Incident) []string {
	if inc.DepartmentID == nil || inc.OccurredAt == nil {
		return nil
	}
	return gradingKeys(*inc.DepartmentID, *inc.OccurredAt, *inc.OccurredAt)
}

// lockGradingKeys takes transaction-scoped advisory locks in sorted order.
func lockGradingKeys(ctx context.Context, tx repository.Executor, keys []string) error {
	slices.Sort(keys)
	for _, key := range slices.Compact(keys) {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
			return fmt.Errorf("lock grading window: %w", err)
		}
	}
	return nil
}

func lockIncident(ctx context.Context, tx *sql.Tx, id uuid.UUID) (Incident, error) {
	q := "SELECT " + columns + " FROM incidents WHERE id = $1 FOR UPDATE"
	return repository.QueryOne(ctx, tx, q, []any{id}, scanIncident)
}

func detailArgs(d Details) []any {
	return []any{
		d.PatientName,
		d.PatientIdentifier,
		d.ReporterType,
		d.Age,
		d.AgeGroup,
		d.Gender,
		d.PayerType,
		d.AdmissionAt,
		d.IncidentPlace,
		d.IncidentSubject,
		d.PatientContext,
		stringList(d.ResponderRoles),
		d.ImmediateAction,
		d.HasSimilarEvent,
	}
}

// canRead allows reporters their own incidents and reviewers every incident.
func canRead(actor auth.Actor, inc *Incident) bool {
	return inc.ReporterID == actor.ID || taxonomy.IsReviewer(actor.Roles)
}

// scopeFilters restricts reporter-only actors to their own department, or
// to their own reports when they have no department.
func scopeFilters(actor auth.Actor, f Filters) (Filters, error) {
	if taxonomy.IsReviewer(actor.Roles) {
		return f, nil
	}
	if !actor.HasRole(taxonomy.RolePerawat) {
		return f, fmt.Errorf("%w: no role may list incidents", ErrForbidden)
	}

	if actor.DepartmentID != nil {
		f.DepartmentID = actor.DepartmentID
	} else {
		f.ReporterID = &actor.ID
	}
	return f, nil
}

// txSession runs lifecycle reads and audit writes inside the incident's
// transaction.
type txSession struct {
	tx *sql.Tx
}

func (s txSession) CountInWindow(ctx context.Context, departmentID uuid.UUID, start, end time.Time) (int, error) {
	if err := lockGradingKeys(ctx, s.tx, gradingKeys(departmentID, start, end.Add(-time.Nanosecond))); err != nil {
		return 0, err
	}

	var n int
	err := s.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM incidents
		WHERE department_id = $1 AND occurred_at >= $2 AND occurred_at < $3`,
		departmentID, start, end,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count incidents in window: %w", err)
	}
	return n, nil
}

func (s txSession) AppendAudit(ctx context.Context, rec AuditRecord) error {
	var diff any
	if rec.Diff != nil {
		diff = string(rec.Diff)
	}

	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO audit_logs(id, incident_id, actor_id, from_status, to_status, payload_diff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.IncidentID, rec.ActorID, rec.FromStatus, rec.ToStatus, diff, rec.CreatedAt,
	)
	return err
}
