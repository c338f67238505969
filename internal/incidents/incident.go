// Package incidents implements the patient-safety incident domain: draft
// reports, the review lifecycle with its audit trail, and PostgreSQL
// persistence behind an HTTP handler.
package incidents

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

const minDescriptionLength = 10

// Incident is a patient-safety incident report.
// Predicted fields, codes and grading are written once, at submission.
// FinalCategory is only ever written by a reviewer.
type Incident struct {
	ID            uuid.UUID  `json:"id"`
	ReporterID    string     `json:"reporter_id"`
	Description   string     `json:"description"`
	OccurredAt    *time.Time `json:"occurred_at"`
	DepartmentID  *uuid.UUID `json:"department_id"`
	HarmIndicator *string    `json:"harm_indicator"`

	PredictedCategory   *taxonomy.Category `json:"predicted_category"`
	PredictedConfidence *float64           `json:"predicted_confidence"`
	ModelVersion        *string            `json:"model_version"`
	SKPCode             *taxonomy.SKPCode  `json:"skp_code"`
	MDPCode             *taxonomy.MDPCode  `json:"mdp_code"`
	Grading             *taxonomy.Grade    `json:"grading"`

	FinalCategory        *taxonomy.Category `json:"final_category"`
	LastCategoryEditorID *string            `json:"last_category_editor_id"`
	Status               taxonomy.Status    `json:"status"`

	Details

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Details are the structured report form fields. Every field is optional.
type Details struct {
	PatientName       *string            `json:"patient_name"`
	PatientIdentifier *string            `json:"patient_identifier"`
	ReporterType      *string            `json:"reporter_type"`
	Age               *int               `json:"age"`
	AgeGroup          *taxonomy.AgeGroup `json:"age_group"`
	Gender            *string            `json:"gender"`
	PayerType         *string            `json:"payer_type"`
	AdmissionAt       *time.Time         `json:"admission_at"`
	IncidentPlace     *string            `json:"incident_place"`
	IncidentSubject   *string            `json:"incident_subject"`
	PatientContext    *string            `json:"patient_context"`
	ResponderRoles    []string           `json:"responder_roles"`
	ImmediateAction   *string            `json:"immediate_action"`
	HasSimilarEvent   *bool              `json:"has_similar_event"`
}

// AuditRecord is one immutable entry of an incident's history.
type AuditRecord struct {
	ID         uuid.UUID       `json:"id"`
	IncidentID uuid.UUID       `json:"incident_id"`
	ActorID    string          `json:"actor_id"`
	FromStatus taxonomy.Status `json:"from_status"`
	ToStatus   taxonomy.Status `json:"to_status"`
	Diff       json.RawMessage `json:"diff"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Draft is the reporter-editable content of an incident, used to create
// a draft and to replace the content of an existing one.
type Draft struct {
	Description   string     `json:"description"`
	OccurredAt    *time.Time `json:"occurred_at"`
	DepartmentID  *uuid.UUID `json:"department_id"`
	HarmIndicator *string    `json:"harm_indicator"`
	Details
}

// CategoryCommand sets the reviewer's final category.
type CategoryCommand struct {
	Category taxonomy.Category `json:"category"`
}

// Normalize trims the description and derives the age group from the age
// when only the age is given.
func (d *Draft) Normalize() {
	d.Description = strings.TrimSpace(d.Description)
	if d.Age != nil && d.AgeGroup == nil {
		g := taxonomy.AgeGroupOf(*d.Age)
		d.AgeGroup = &g
	}
}

// Validate checks the description length and every enumerated form field.
func (d *Draft) Validate() error {
	if utf8.RuneCountInString(d.Description) < minDescriptionLength {
		return fmt.Errorf("%w: description must be at least %d characters", ErrInvalidInput, minDescriptionLength)
	}
	if d.Age != nil && *d.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	if d.AgeGroup != nil {
		if _, ok := taxonomy.ParseAgeGroup(string(*d.AgeGroup)); !ok {
			return fmt.Errorf("%w: unknown age_group %q", ErrInvalidInput, *d.AgeGroup)
		}
	}

	for _, f := range []struct {
		name  string
		set   []string
		value *string
	}{
		{"reporter_type", taxonomy.ReporterTypes, d.ReporterType},
		{"gender", taxonomy.Genders, d.Gender},
		{"payer_type", taxonomy.PayerTypes, d.PayerType},
		{"incident_place", taxonomy.IncidentPlaces, d.IncidentPlace},
		{"incident_subject", taxonomy.IncidentSubjects, d.IncidentSubject},
		{"patient_context", taxonomy.PatientContexts, d.PatientContext},
	} {
		if !taxonomy.Allowed(f.set, f.value) {
			return fmt.Errorf("%w: unknown %s %q", ErrInvalidInput, f.name, *f.value)
		}
	}

	for _, r := range d.ResponderRoles {
		if !taxonomy.Allowed(taxonomy.ResponderRoles, &r) {
			return fmt.Errorf("%w: unknown responder role %q", ErrInvalidInput, r)
		}
	}

	return nil
}

// apply copies the draft content onto inc.
func (d *Draft) apply(inc *Incident) {
	inc.Description = d.Description
	inc.HarmIndicator = d.HarmIndicator
	inc.Details = d.Details
	if d.OccurredAt != nil {
		inc.OccurredAt = d.OccurredAt
	}
	if d.DepartmentID != nil {
		inc.DepartmentID = d.DepartmentID
	}
}
