package departments

import (
	"errors"
	"net/http"
)

// Domain errors for department operations.
var (
	ErrNotFound     = errors.New("department not found")
	ErrDuplicate    = errors.New("department name already exists")
	ErrInUse        = errors.New("department has incidents")
	ErrInvalidInput = errors.New("invalid department")
)

// MapHTTPStatus maps department domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInUse) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
