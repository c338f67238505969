package module_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1", "/"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%q) should panic", prefix)
				}
			}()
			module.New(prefix, http.NewServeMux())
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/api/incidents", "/incidents"},
		{"/api/incidents/42/audit", "/incidents/42/audit"},
		{"/api", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var got string
			m := module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Path
			}))

			req := httptest.NewRequest("GET", tt.target, nil)
			m.Serve(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("inner path = %q, want %q", got, tt.want)
			}
			if req.URL.Path != tt.target {
				t.Errorf("original request mutated: %q", req.URL.Path)
			}
		})
	}
}

func TestModuleMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	m := module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	m.Use(tag("recover"))
	m.Use(tag("auth"))

	m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/departments", nil))

	if got := strings.Join(order, ","); got != "recover,auth,handler" {
		t.Errorf("order = %s", got)
	}
}

func TestRouter(t *testing.T) {
	inner := http.NewServeMux()
	inner.HandleFunc("GET /incidents", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "incidents")
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", inner))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	tests := []struct {
		target   string
		wantCode int
		wantBody string
	}{
		{"/api/incidents", http.StatusOK, "incidents"},
		{"/api/incidents/", http.StatusOK, "incidents"},
		{"/healthz", http.StatusOK, "ok"},
		{"/api/unknown", http.StatusNotFound, ""},
		{"/apix", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.target, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
