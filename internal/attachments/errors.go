package attachments

import (
	"errors"
	"net/http"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/incidents"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/storage"
)

// Domain errors for attachment operations.
var (
	ErrNotFound     = errors.New("attachment not found")
	ErrDuplicate    = errors.New("attachment already exists")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
	ErrForbidden    = errors.New("only the reporter may change attachments")
	ErrNotDraft     = errors.New("attachments can only change while the incident is a draft")
)

// MapHTTPStatus maps attachment, incident and storage errors to HTTP
// status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotDraft):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}

	if status := incidents.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return storage.MapHTTPStatus(err)
}
