package incidents_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/incidents"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

func ptr[T any](v T) *T { return &v }

func TestDraftValidate(t *testing.T) {
	valid := func() incidents.Draft {
		return incidents.Draft{Description: "pasien jatuh di kamar mandi"}
	}

	tests := []struct {
		name    string
		mutate  func(*incidents.Draft)
		wantErr bool
	}{
		{"minimal", func(*incidents.Draft) {}, false},
		{"short description", func(d *incidents.Draft) { d.Description = "   jatuh    " }, true},
		{"ten runes", func(d *incidents.Draft) { d.Description = "cedera ñañ" }, false},
		{"negative age", func(d *incidents.Draft) { d.Age = ptr(-1) }, true},
		{"unknown gender", func(d *incidents.Draft) { d.Gender = ptr("x") }, true},
		{"unknown place", func(d *incidents.Draft) { d.IncidentPlace = ptr("atap") }, true},
		{"unknown responder", func(d *incidents.Draft) { d.ResponderRoles = []string{"pilot"} }, true},
		{"unknown age group", func(d *incidents.Draft) { g := taxonomy.AgeGroup("purba"); d.AgeGroup = &g }, true},
		{"known responders", func(d *incidents.Draft) { d.ResponderRoles = taxonomy.ResponderRoles[:1] }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(&d)
			d.Normalize()

			err := d.Validate()
			if tt.wantErr {
				if !errors.Is(err, incidents.ErrInvalidInput) {
					t.Fatalf("got %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDraftNormalize(t *testing.T) {
	d := incidents.Draft{Description: "  pasien jatuh di kamar mandi \n", Age: ptr(70)}
	d.Normalize()

	if strings.TrimSpace(d.Description) != d.Description {
		t.Errorf("description not trimmed: %q", d.Description)
	}
	if d.AgeGroup == nil || *d.AgeGroup != taxonomy.AgeGroupOf(70) {
		t.Errorf("age group = %v, want %s", d.AgeGroup, taxonomy.AgeGroupOf(70))
	}

	g := taxonomy.AgeBayi
	d = incidents.Draft{Description: "pasien jatuh di kamar mandi", Age: ptr(70), AgeGroup: &g}
	d.Normalize()
	if *d.AgeGroup != taxonomy.AgeBayi {
		t.Error("explicit age group must be kept")
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{
		"status":         {"closed"},
		"department_id":  {"not-a-uuid"},
		"final_category": {"KTD"},
		"occurred_from":  {"2025-03-01"},
		"occurred_to":    {"2025-04-01T00:00:00+07:00"},
		"grading":        {"UNGU"},
	}

	f := incidents.FiltersFromQuery(values)

	if f.Status == nil || *f.Status != taxonomy.StatusClosed {
		t.Errorf("status = %v", f.Status)
	}
	if f.DepartmentID != nil || f.Grading != nil {
		t.Errorf("malformed values should be ignored: %+v", f)
	}
	if f.FinalCategory == nil || *f.FinalCategory != taxonomy.CategoryKTD {
		t.Errorf("final category = %v", f.FinalCategory)
	}
	if f.OccurredFrom == nil || !f.OccurredFrom.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("occurred from = %v", f.OccurredFrom)
	}
	if f.OccurredTo == nil || !f.OccurredTo.Equal(time.Date(2025, 3, 31, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("occurred to = %v", f.OccurredTo)
	}
}
