package access_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
)

func newPolicy(t *testing.T) *access.Policy {
	t.Helper()
	p, err := access.New(access.DefaultRules, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return p
}

func TestAllowed(t *testing.T) {
	p := newPolicy(t)

	tests := []struct {
		name  string
		roles []string
		obj   string
		act   string
		want  bool
	}{
		{"perawat creates", []string{"perawat"}, access.Incident, access.Create, true},
		{"perawat submits", []string{"perawat"}, access.Incident, access.Submit, true},
		{"perawat cannot close", []string{"perawat"}, access.Incident, access.Close, false},
		{"perawat cannot categorize", []string{"perawat"}, access.Incident, access.Categorize, false},
		{"pj categorizes", []string{"pj"}, access.Incident, access.Categorize, true},
		{"pj cannot close", []string{"pj"}, access.Incident, access.Close, false},
		{"mutu closes", []string{"mutu"}, access.Incident, access.Close, true},
		{"mutu cannot submit", []string{"mutu"}, access.Incident, access.Submit, false},
		{"admin manages departments", []string{"admin"}, access.Department, access.Manage, true},
		{"mutu cannot manage departments", []string{"mutu"}, access.Department, access.Manage, false},
		{"any role grants", []string{"unknown", "mutu"}, access.Incident, access.Close, true},
		{"no roles", nil, access.Incident, access.Read, false},
		{"unknown role", []string{"guest"}, access.Incident, access.Read, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Allowed(tt.roles, tt.obj, tt.act); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	p := newPolicy(t)

	called := false
	h := p.Require(access.Incident, access.Close, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		actor      *auth.Actor
		wantStatus int
		wantCalled bool
	}{
		{"no actor", nil, http.StatusUnauthorized, false},
		{"denied", &auth.Actor{ID: "n1", Roles: []string{"perawat"}}, http.StatusForbidden, false},
		{"allowed", &auth.Actor{ID: "m1", Roles: []string{"mutu"}}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest("POST", "/incidents/x/close", nil)
			if tt.actor != nil {
				req = req.WithContext(auth.WithActor(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()

			h(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("called: got %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func TestEmptyPolicyDenies(t *testing.T) {
	p, err := access.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if p.Allowed([]string{"admin"}, access.Incident, access.Read) {
		t.Error("empty policy should deny")
	}
}
