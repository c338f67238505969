package incidents

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/handlers"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/pagination"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/routes"
)

// Handler provides HTTP endpoints for incident operations.
type Handler struct {
	sys        System
	policy     *access.Policy
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler whose routes are guarded by policy.
func NewHandler(
	sys System,
	policy *access.Policy,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		policy:     policy,
		logger:     logger.With("handler", "incidents"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for incident endpoints.
func (h *Handler) Routes() routes.Group {
	p := h.policy
	return routes.Group{
		Prefix: "/incidents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: p.Require(access.Incident, access.Read, h.List)},
			{Method: "POST", Pattern: "/search", Handler: p.Require(access.Incident, access.Read, h.Search)},
			{Method: "GET", Pattern: "/{id}", Handler: p.Require(access.Incident, access.Read, h.Find)},
			{Method: "GET", Pattern: "/{id}/audit", Handler: p.Require(access.Incident, access.Read, h.Audit)},
			{Method: "POST", Pattern: "", Handler: p.Require(access.Incident, access.Create, h.Create)},
			{Method: "PUT", Pattern: "/{id}", Handler: p.Require(access.Incident, access.Edit, h.Update)},
			{Method: "POST", Pattern: "/{id}/submit", Handler: p.Require(access.Incident, access.Submit, h.Submit)},
			{Method: "PUT", Pattern: "/{id}/category", Handler: p.Require(access.Incident, access.Categorize, h.UpdateCategory)},
			{Method: "POST", Pattern: "/{id}/close", Handler: p.Require(access.Incident, access.Close, h.Close)},
		},
	}
}

// List returns a paginated list of incidents visible to the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), actor, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req SearchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), actor, req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single incident by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(actor auth.Actor, id uuid.UUID) (any, error) {
		return h.sys.Find(r.Context(), actor, id)
	})
}

// Audit returns the audit trail of an incident, oldest first.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(actor auth.Actor, id uuid.UUID) (any, error) {
		return h.sys.Audit(r.Context(), actor, id)
	})
}

// Create stores a new DRAFT incident for the calling reporter.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var draft Draft
	if err := handlers.DecodeJSON(r, &draft); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	inc, err := h.sys.Create(r.Context(), actor, draft)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, inc)
}

// Update replaces the content of a DRAFT incident.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if err := handlers.DecodeJSON(r, &draft); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.withID(w, r, func(actor auth.Actor, id uuid.UUID) (any, error) {
		return h.sys.Update(r.Context(), actor, id, draft)
	})
}

// Submit moves a DRAFT incident into review.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(actor auth.Actor, id uuid.UUID) (any, error) {
		return h.sys.Submit(r.Context(), actor, id)
	})
}

// UpdateCategory records the reviewer's final category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var cmd CategoryCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	category, ok := taxonomy.ParseCategory(string(cmd.Category))
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, cmd.Category))
		return
	}

	h.withID(w, r, func(actor auth.Actor, id uuid.UUID) (any, error) {
		return h.sys.UpdateCategory(r.Context(), actor, id, category)
	})
}

// Close closes a categorized incident.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(actor auth.Actor, id uuid.UUID) (any, error) {
		return h.sys.Close(r.Context(), actor, id)
	})
}

func (h *Handler) withID(w http.ResponseWriter, r *http.Request, fn func(auth.Actor, uuid.UUID) (any, error)) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: malformed incident id", ErrInvalidInput))
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())

	result, err := fn(actor, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
