package incidents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/classify"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/grading"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/statemachine"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
)

// Classifier predicts an incident category from its narrative.
type Classifier interface {
	Classify(ctx context.Context, text string) classify.Prediction
}

// CodePredictor predicts SKP and MDP codes from a narrative.
type CodePredictor interface {
	PredictCodes(ctx context.Context, text string) classify.Codes
}

// Session is the unit of work a lifecycle operation runs in. Everything
// written through it commits or rolls back together with the incident.
type Session interface {
	grading.Counter
	AppendAudit(ctx context.Context, rec AuditRecord) error
}

// Lifecycle applies the review workflow to a loaded incident. It mutates
// the incident in place and appends exactly one audit record per
// successful state-changing call; persisting the incident is the caller's
// job.
type Lifecycle struct {
	machine    *statemachine.Machine
	classifier Classifier
	codes      CodePredictor
	logger     *slog.Logger
	now        func() time.Time
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(
	machine *statemachine.Machine,
	classifier Classifier,
	codes CodePredictor,
	logger *slog.Logger,
) *Lifecycle {
	return &Lifecycle{
		machine:    machine,
		classifier: classifier,
		codes:      codes,
		logger:     logger.With("component", "lifecycle"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type submitDiff struct {
	Prediction classify.Prediction `json:"prediction"`
	Codes      classify.Codes      `json:"codes"`
	Grading    *taxonomy.Grade     `json:"grading"`
}

type categoryDiff struct {
	PreviousCategory     *taxonomy.Category `json:"previous_category"`
	FinalCategory        taxonomy.Category  `json:"final_category"`
	LastCategoryEditorID string             `json:"last_category_editor_id"`
}

// Submit moves a DRAFT incident to SUBMITTED and fills in the automated
// category, SKP/MDP codes and risk grade. Prediction and grading problems
// degrade the result but never fail the submission.
func (l *Lifecycle) Submit(ctx context.Context, session Session, inc *Incident, actor auth.Actor) error {
	if inc.Status != taxonomy.StatusDraft {
		return fmt.Errorf("%w: only DRAFT incidents can be submitted, incident is %s", statemachine.ErrInvalidStateTransition, inc.Status)
	}
	if err := l.machine.Authorize(inc.Status, taxonomy.StatusSubmitted, actor.Roles); err != nil {
		return err
	}

	pred := l.classifier.Classify(ctx, inc.Description)
	codes := l.codes.PredictCodes(ctx, inc.Description)

	grade, graded, err := grading.Grade(ctx, session, inc.DepartmentID, inc.OccurredAt, inc.HarmIndicator)
	if err != nil {
		l.logger.WarnContext(ctx, "grading failed, leaving grade unset", "incident", inc.ID, "error", err)
		graded = false
	}

	from := inc.Status

	inc.PredictedCategory = &pred.Category
	inc.PredictedConfidence = &pred.Confidence
	inc.ModelVersion = &pred.ModelVersion
	if codes.SKP != nil {
		inc.SKPCode = codes.SKP
	}
	if codes.MDP != nil {
		inc.MDPCode = codes.MDP
	}
	inc.Grading = nil
	if graded {
		inc.Grading = &grade
	}
	inc.Status = taxonomy.StatusSubmitted
	inc.UpdatedAt = l.now()

	diff := submitDiff{Prediction: pred, Codes: codes, Grading: inc.Grading}
	if err := l.audit(ctx, session, inc, actor, from, diff); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "incident submitted",
		"incident", inc.ID,
		"actor", actor.ID,
		"category", pred.Category,
		"model_version", pred.ModelVersion,
		"grading", inc.Grading,
	)
	return nil
}

// UpdateCategory records a reviewer's final category. The status does not
// change. DRAFT and CLOSED incidents cannot be categorized.
func (l *Lifecycle) UpdateCategory(ctx context.Context, session Session, inc *Incident, actor auth.Actor, category taxonomy.Category) error {
	switch inc.Status {
	case taxonomy.StatusDraft:
		return fmt.Errorf("%w: submit the incident before editing its category", ErrInvalidState)
	case taxonomy.StatusClosed:
		return fmt.Errorf("%w: cannot edit category of a closed incident", ErrInvalidState)
	}

	previous := inc.FinalCategory

	inc.FinalCategory = &category
	inc.LastCategoryEditorID = &actor.ID
	inc.UpdatedAt = l.now()

	diff := categoryDiff{
		PreviousCategory:     previous,
		FinalCategory:        category,
		LastCategoryEditorID: actor.ID,
	}
	if err := l.audit(ctx, session, inc, actor, inc.Status, diff); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "incident categorized", "incident", inc.ID, "actor", actor.ID, "category", category)
	return nil
}

// Close moves a SUBMITTED incident with a final category to CLOSED.
// Closing an already closed incident succeeds without writing anything.
func (l *Lifecycle) Close(ctx context.Context, session Session, inc *Incident, actor auth.Actor) error {
	if err := l.machine.Authorize(inc.Status, taxonomy.StatusClosed, actor.Roles); err != nil {
		return err
	}
	if inc.Status == taxonomy.StatusClosed {
		return nil
	}
	if inc.FinalCategory == nil {
		return ErrFinalCategoryMissing
	}

	from := inc.Status

	inc.Status = taxonomy.StatusClosed
	inc.UpdatedAt = l.now()

	if err := l.audit(ctx, session, inc, actor, from, nil); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "incident closed", "incident", inc.ID, "actor", actor.ID)
	return nil
}

func (l *Lifecycle) audit(ctx context.Context, session Session, inc *Incident, actor auth.Actor, from taxonomy.Status, diff any) error {
	rec := AuditRecord{
		ID:         uuid.New(),
		IncidentID: inc.ID,
		ActorID:    actor.ID,
		FromStatus: from,
		ToStatus:   inc.Status,
		CreatedAt:  inc.UpdatedAt,
	}

	if diff != nil {
		data, err := json.Marshal(diff)
		if err != nil {
			return fmt.Errorf("encode audit diff: %w", err)
		}
		rec.Diff = data
	}

	if err := session.AppendAudit(ctx, rec); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}
