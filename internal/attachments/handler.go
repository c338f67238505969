package attachments

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/access"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/formatting"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/handlers"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/routes"
)

// AllowedContentTypes are the accepted evidence formats.
var AllowedContentTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
}

// Handler provides HTTP endpoints for attachment operations.
type Handler struct {
	sys           System
	policy        *access.Policy
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler whose routes are guarded by policy.
func NewHandler(sys System, policy *access.Policy, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		policy:        policy,
		logger:        logger.With("handler", "attachments"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for attachment endpoints.
func (h *Handler) Routes() routes.Group {
	p := h.policy
	return routes.Group{
		Prefix: "/attachments",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/incident/{id}", Handler: p.Require(access.Attachment, access.Read, h.List)},
			{Method: "POST", Pattern: "/incident/{id}", Handler: p.Require(access.Attachment, access.Upload, h.Upload)},
			{Method: "GET", Pattern: "/{id}", Handler: p.Require(access.Attachment, access.Read, h.Find)},
			{Method: "GET", Pattern: "/{id}/download", Handler: p.Require(access.Attachment, access.Read, h.Download)},
			{Method: "DELETE", Pattern: "/{id}", Handler: p.Require(access.Attachment, access.Upload, h.Delete)},
		},
	}
}

// List returns the attachments of an incident, oldest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	items, err := h.sys.List(r.Context(), actor, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Find returns attachment metadata.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	a, err := h.sys.Find(r.Context(), actor, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

// Upload stores a multipart "file" field against a DRAFT incident.
// PDF page counts are extracted with pdfcpu.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	if r.ContentLength > h.maxUploadSize {
		h.tooLarge(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidFile, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: missing file field", ErrInvalidFile))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: empty or unreadable file", ErrInvalidFile))
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)
	if !slices.Contains(AllowedContentTypes, contentType) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: unsupported content type %s", ErrInvalidFile, contentType))
		return
	}

	cmd := CreateCommand{
		IncidentID:  id,
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		PageCount:   extractPDFPageCount(h.logger, data, contentType),
	}

	a, err := h.sys.Create(r.Context(), actor, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, a)
}

// Download streams the attachment content.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	a, blob, err := h.sys.Open(r.Context(), actor, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = a.ContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	if blob.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("attachment stream interrupted", "id", id, "error", err)
	}
}

// Delete removes an attachment from a DRAFT incident.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	if err := h.sys.Delete(r.Context(), actor, id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: malformed id", ErrInvalidFile))
		return uuid.Nil, false
	}
	return id, true
}

func detectContentType(header string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(strings.TrimSpace(header)); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("pdf page count unavailable", "error", err)
		return nil
	}
	return &count
}

func (h *Handler) tooLarge(w http.ResponseWriter) {
	err := fmt.Errorf("%w (%s)", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize, 0))
	handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
}
