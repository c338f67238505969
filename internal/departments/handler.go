package departments

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/handlers"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/routes"
)

// Handler provides HTTP endpoints for department operations.
type Handler struct {
	sys        System
	policy     *access.Policy
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler whose routes are guarded by policy.
func NewHandler(sys System, policy *access.Policy, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		policy:     policy,
		logger:     logger.With("handler", "departments"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for department endpoints.
func (h *Handler) Routes() routes.Group {
	p := h.policy
	return routes.Group{
		Prefix: "/departments",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: p.Require(access.Department, access.Read, h.List)},
			{Method: "GET", Pattern: "/{id}", Handler: p.Require(access.Department, access.Read, h.Find)},
			{Method: "POST", Pattern: "", Handler: p.Require(access.Department, access.Manage, h.Create)},
			{Method: "PUT", Pattern: "/{id}", Handler: p.Require(access.Department, access.Manage, h.Update)},
			{Method: "DELETE", Pattern: "/{id}", Handler: p.Require(access.Department, access.Manage, h.Delete)},
		},
	}
}

// List returns a paginated list of departments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single department by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	d, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Create adds a department.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	d, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, d)
}

// Update replaces a department's name and description.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd Command
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	d, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Delete removes a department that no incident references.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: malformed id", ErrInvalidInput))
		return uuid.Nil, false
	}
	return id, true
}
