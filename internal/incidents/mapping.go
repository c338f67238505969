package incidents

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/query"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/repository"
)

const columns = `id, reporter_id, description, occurred_at, department_id, harm_indicator,
	predicted_category, predicted_confidence, model_version, skp_code, mdp_code, grading,
	final_category, last_category_editor_id, status,
	patient_name, patient_identifier, reporter_type, age, age_group, gender, payer_type,
	admission_at, incident_place, incident_subject, patient_context, responder_roles,
	immediate_action, has_similar_event, created_at, updated_at`

var projection = query.
	NewProjectionMap("public", "incidents", "i").
	Project("id", "ID").
	Project("reporter_id", "ReporterID").
	Project("description", "Description").
	Project("occurred_at", "OccurredAt").
	Project("department_id", "DepartmentID").
	Project("harm_indicator", "HarmIndicator").
	Project("predicted_category", "PredictedCategory").
	Project("predicted_confidence", "PredictedConfidence").
	Project("model_version", "ModelVersion").
	Project("skp_code", "SKPCode").
	Project("mdp_code", "MDPCode").
	Project("grading", "Grading").
	Project("final_category", "FinalCategory").
	Project("last_category_editor_id", "LastCategoryEditorID").
	Project("status", "Status").
	Project("patient_name", "PatientName").
	Project("patient_identifier", "PatientIdentifier").
	Project("reporter_type", "ReporterType").
	Project("age", "Age").
	Project("age_group", "AgeGroup").
	Project("gender", "Gender").
	Project("payer_type", "PayerType").
	Project("admission_at", "AdmissionAt").
	Project("incident_place", "IncidentPlace").
	Project("incident_subject", "IncidentSubject").
	Project("patient_context", "PatientContext").
	Project("responder_roles", "ResponderRoles").
	Project("immediate_action", "ImmediateAction").
	Project("has_similar_event", "HasSimilarEvent").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// searchFields are matched case-insensitively by the free-text search.
var searchFields = []string{"PatientName", "PatientIdentifier", "Description"}

// Filters contains optional filtering criteria for incident queries.
// Nil fields are ignored. OccurredFrom and OccurredTo bound a half-open
// window [from, to); the rest match exactly.
type Filters struct {
	Status        *taxonomy.Status   `json:"status,omitempty"`
	DepartmentID  *uuid.UUID         `json:"department_id,omitempty"`
	ReporterID    *string            `json:"reporter_id,omitempty"`
	Grading       *taxonomy.Grade    `json:"grading,omitempty"`
	FinalCategory *taxonomy.Category `json:"final_category,omitempty"`
	OccurredFrom  *time.Time         `json:"occurred_from,omitempty"`
	OccurredTo    *time.Time         `json:"occurred_to,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("DepartmentID", f.DepartmentID).
		WhereEquals("ReporterID", f.ReporterID).
		WhereEquals("Grading", f.Grading).
		WhereEquals("FinalCategory", f.FinalCategory).
		WhereAtLeast("OccurredAt", f.OccurredFrom).
		WhereBefore("OccurredAt", f.OccurredTo)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unrecognized enum values and malformed ids are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s, ok := taxonomy.ParseStatus(values.Get("status")); ok {
		f.Status = &s
	}

	if d := values.Get("department_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DepartmentID = &id
		}
	}

	if r := values.Get("reporter_id"); r != "" {
		f.ReporterID = &r
	}

	if g, ok := taxonomy.ParseGrade(values.Get("grading")); ok {
		f.Grading = &g
	}

	if c, ok := taxonomy.ParseCategory(values.Get("final_category")); ok {
		f.FinalCategory = &c
	}

	f.OccurredFrom = parseTime(values.Get("occurred_from"))
	f.OccurredTo = parseTime(values.Get("occurred_to"))

	return f
}

// parseTime accepts RFC 3339 timestamps and plain dates, which are read as
// midnight UTC.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// stringList stores a string slice in a jsonb column.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *stringList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan stringList: unsupported type %T", src)
	}
	return json.Unmarshal(data, (*[]string)(l))
}

func scanIncident(s repository.Scanner) (Incident, error) {
	var i Incident
	err := s.Scan(
		&i.ID,
		&i.ReporterID,
		&i.Description,
		&i.OccurredAt,
		&i.DepartmentID,
		&i.HarmIndicator,
		&i.PredictedCategory,
		&i.PredictedConfidence,
		&i.ModelVersion,
		&i.SKPCode,
		&i.MDPCode,
		&i.Grading,
		&i.FinalCategory,
		&i.LastCategoryEditorID,
		&i.Status,
		&i.PatientName,
		&i.PatientIdentifier,
		&i.ReporterType,
		&i.Age,
		&i.AgeGroup,
		&i.Gender,
		&i.PayerType,
		&i.AdmissionAt,
		&i.IncidentPlace,
		&i.IncidentSubject,
		&i.PatientContext,
		(*stringList)(&i.ResponderRoles),
		&i.ImmediateAction,
		&i.HasSimilarEvent,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanAudit(s repository.Scanner) (AuditRecord, error) {
	var (
		a    AuditRecord
		diff []byte
	)
	err := s.Scan(
		&a.ID,
		&a.IncidentID,
		&a.ActorID,
		&a.FromStatus,
		&a.ToStatus,
		&diff,
		&a.CreatedAt,
	)
	if len(diff) > 0 {
		a.Diff = diff
	}
	return a, err
}
