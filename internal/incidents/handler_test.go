package incidents_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/incidents"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/statemachine"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
)

type mockSystem struct {
	listFn     func(ctx context.Context, actor auth.Actor, page pagination.PageRequest, filters incidents.Filters) (*pagination.PageResult[incidents.Incident], error)
	findFn     func(ctx context.Context, actor auth.Actor, id uuid.UUID) (*incidents.Incident, error)
	createFn   func(ctx context.Context, actor auth.Actor, draft incidents.Draft) (*incidents.Incident, error)
	updateFn   func(ctx context.Context, actor auth.Actor, id uuid.UUID, draft incidents.Draft) (*incidents.Incident, error)
	submitFn   func(ctx context.Context, actor auth.Actor, id uuid.UUID) (*incidents.Incident, error)
	categoryFn func(ctx context.Context, actor auth.Actor, id uuid.UUID, category taxonomy.Category) (*incidents.Incident, error)
	closeFn    func(ctx context.Context, actor auth.Actor, id uuid.UUID) (*incidents.Incident, error)
	auditFn    func(ctx context.Context, actor auth.Actor, id uuid.UUID) ([]incidents.AuditRecord, error)
}

func (m *mockSystem) Handler(policy *access.Policy) *incidents.Handler {
	return incidents.NewHandler(m, policy, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) List(ctx context.Context, actor auth.Actor, page pagination.PageRequest, filters incidents.Filters) (*pagination.PageResult[incidents.Incident], error) {
	return m.listFn(ctx, actor, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, actor auth.Actor, id uuid.UUID) (*incidents.Incident, error) {
	return m.findFn(ctx, actor, id)
}

func (m *mockSystem) Create(ctx context.Context, actor auth.Actor, draft incidents.Draft) (*incidents.Incident, error) {
	return m.createFn(ctx, actor, draft)
}

func (m *mockSystem) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, draft incidents.Draft) (*incidents.Incident, error) {
	return m.updateFn(ctx, actor, id, draft)
}

func (m *mockSystem) Submit(ctx context.Context, actor auth.Actor, id uuid.UUID) (*incidents.Incident, error) {
	return m.submitFn(ctx, actor, id)
}

func (m *mockSystem) UpdateCategory(ctx context.Context, actor auth.Actor, id uuid.UUID, category taxonomy.Category) (*incidents.Incident, error) {
	return m.categoryFn(ctx, actor, id, category)
}

func (m *mockSystem) Close(ctx context.Context, actor auth.Actor, id uuid.UUID) (*incidents.Incident, error) {
	return m.closeFn(ctx, actor, id)
}

func (m *mockSystem) Audit(ctx context.Context, actor auth.Actor, id uuid.UUID) ([]incidents.AuditRecord, error) {
	return m.auditFn(ctx, actor, id)
}

func setupMux(t *testing.T, sys *mockSystem) *http.ServeMux {
	t.Helper()
	policy, err := access.New(access.DefaultRules, discard())
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	group := sys.Handler(policy).Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func serve(mux *http.ServeMux, actor *auth.Actor, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

var sampleID = uuid.MustParse("7d3f2a1e-5b4c-4e8f-9a0b-1c2d3e4f5a6b")

func sampleIncident(status taxonomy.Status) *incidents.Incident {
	return &incidents.Incident{
		ID:          sampleID,
		ReporterID:  reporter.ID,
		Description: "pasien jatuh dari tempat tidur",
		Status:      status,
	}
}

func TestHandlerList(t *testing.T) {
	var (
		gotActor   auth.Actor
		gotFilters incidents.Filters
		gotPage    pagination.PageRequest
	)
	sys := &mockSystem{
		listFn: func(_ context.Context, actor auth.Actor, page pagination.PageRequest, f incidents.Filters) (*pagination.PageResult[incidents.Incident], error) {
			gotActor, gotPage, gotFilters = actor, page, f
			result := pagination.NewPageResult([]incidents.Incident{*sampleIncident(taxonomy.StatusSubmitted)}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(t, sys)

	rec := serve(mux, &pj, "GET", "/incidents?status=submitted&grading=MERAH&search=jatuh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var result pagination.PageResult[incidents.Incident]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].ID != sampleID {
		t.Errorf("unexpected result: %+v", result)
	}

	if gotActor.ID != pj.ID {
		t.Errorf("actor = %s, want %s", gotActor.ID, pj.ID)
	}
	if gotFilters.Status == nil || *gotFilters.Status != taxonomy.StatusSubmitted {
		t.Errorf("status filter = %v", gotFilters.Status)
	}
	if gotFilters.Grading == nil || *gotFilters.Grading != taxonomy.GradeMerah {
		t.Errorf("grading filter = %v", gotFilters.Grading)
	}
	if gotPage.Search == nil || *gotPage.Search != "jatuh" {
		t.Errorf("search = %v", gotPage.Search)
	}
}

func TestHandlerSearch(t *testing.T) {
	var got incidents.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ auth.Actor, _ pagination.PageRequest, f incidents.Filters) (*pagination.PageResult[incidents.Incident], error) {
			got = f
			result := pagination.NewPageResult([]incidents.Incident{}, 0, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(t, sys)

	rec := serve(mux, &mutu, "POST", "/incidents/search", `{"page":1,"page_size":10,"final_category":"KTD"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if got.FinalCategory == nil || *got.FinalCategory != taxonomy.CategoryKTD {
		t.Errorf("final category filter = %v", got.FinalCategory)
	}

	rec = serve(mux, &mutu, "POST", "/incidents/search", `{"unknown":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d, want 400", rec.Code)
	}
}

func TestHandlerAuthorization(t *testing.T) {
	called := false
	ok := func(_ context.Context, _ auth.Actor, _ uuid.UUID) (*incidents.Incident, error) {
		called = true
		return sampleIncident(taxonomy.StatusSubmitted), nil
	}
	sys := &mockSystem{submitFn: ok, closeFn: ok}
	mux := setupMux(t, sys)

	tests := []struct {
		name   string
		actor  *auth.Actor
		target string
		want   int
	}{
		{"anonymous", nil, "/incidents/" + sampleID.String() + "/submit", http.StatusUnauthorized},
		{"mutu cannot submit", &mutu, "/incidents/" + sampleID.String() + "/submit", http.StatusForbidden},
		{"perawat cannot close", &reporter, "/incidents/" + sampleID.String() + "/close", http.StatusForbidden},
		{"pj cannot close", &pj, "/incidents/" + sampleID.String() + "/close", http.StatusForbidden},
		{"perawat submits", &reporter, "/incidents/" + sampleID.String() + "/submit", http.StatusOK},
		{"mutu closes", &mutu, "/incidents/" + sampleID.String() + "/close", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			rec := serve(mux, tt.actor, "POST", tt.target, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("system called = %v", called)
			}
		})
	}
}

func TestHandlerCreate(t *testing.T) {
	var got incidents.Draft
	sys := &mockSystem{
		createFn: func(_ context.Context, _ auth.Actor, d incidents.Draft) (*incidents.Incident, error) {
			got = d
			return sampleIncident(taxonomy.StatusDraft), nil
		},
	}
	mux := setupMux(t, sys)

	body := `{"description":"pasien jatuh di kamar mandi","harm_indicator":"ringan","age":70,"responder_roles":["perawat"]}`
	rec := serve(mux, &reporter, "POST", "/incidents", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if got.Description != "pasien jatuh di kamar mandi" || *got.HarmIndicator != "ringan" || *got.Age != 70 {
		t.Errorf("draft not decoded: %+v", got)
	}

	rec = serve(mux, &reporter, "POST", "/incidents", `{"description":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestHandlerUpdateCategory(t *testing.T) {
	var got taxonomy.Category
	sys := &mockSystem{
		categoryFn: func(_ context.Context, _ auth.Actor, _ uuid.UUID, c taxonomy.Category) (*incidents.Incident, error) {
			got = c
			return sampleIncident(taxonomy.StatusSubmitted), nil
		},
	}
	mux := setupMux(t, sys)
	target := "/incidents/" + sampleID.String() + "/category"

	rec := serve(mux, &pj, "PUT", target, `{"category":"sentinel"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if got != taxonomy.CategorySentinel {
		t.Errorf("category = %s, want SENTINEL", got)
	}

	rec = serve(mux, &pj, "PUT", target, `{"category":"OTHER"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category: status = %d, want 400", rec.Code)
	}

	rec = serve(mux, &reporter, "PUT", target, `{"category":"KTD"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("perawat: status = %d, want 403", rec.Code)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", incidents.ErrNotFound, http.StatusNotFound},
		{"forbidden", incidents.ErrForbidden, http.StatusForbidden},
		{"invalid state", fmt.Errorf("%w: closed", incidents.ErrInvalidState), http.StatusConflict},
		{"final category missing", incidents.ErrFinalCategoryMissing, http.StatusConflict},
		{"invalid transition", statemachine.ErrInvalidStateTransition, http.StatusConflict},
		{"role not allowed", statemachine.ErrRoleNotAllowed, http.StatusForbidden},
		{"invalid input", incidents.ErrInvalidInput, http.StatusBadRequest},
		{"department required", incidents.ErrDepartmentRequired, http.StatusBadRequest},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				closeFn: func(context.Context, auth.Actor, uuid.UUID) (*incidents.Incident, error) {
					return nil, tt.err
				},
			}
			rec := serve(setupMux(t, sys), &mutu, "POST", "/incidents/"+sampleID.String()+"/close", "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestHandlerInvalidID(t *testing.T) {
	sys := &mockSystem{}
	rec := serve(setupMux(t, sys), &pj, "GET", "/incidents/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerAudit(t *testing.T) {
	sys := &mockSystem{
		auditFn: func(_ context.Context, _ auth.Actor, id uuid.UUID) ([]incidents.AuditRecord, error) {
			return []incidents.AuditRecord{{
				IncidentID: id,
				ActorID:    reporter.ID,
				FromStatus: taxonomy.StatusDraft,
				ToStatus:   taxonomy.StatusSubmitted,
				Diff:       json.RawMessage(`{"grading":"BIRU"}`),
			}}, nil
		},
	}

	rec := serve(setupMux(t, sys), &reporter, "GET", "/incidents/"+sampleID.String()+"/audit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var records []incidents.AuditRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].IncidentID != sampleID || string(records[0].Diff) != `{"grading":"BIRU"}` {
		t.Errorf("records: %+v", records)
	}
}
