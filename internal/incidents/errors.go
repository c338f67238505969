package incidents

import (
	"errors"
	"net/http"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/statemachine"
)

// Domain errors for incident operations.
var (
	ErrNotFound             = errors.New("incident not found")
	ErrDuplicate            = errors.New("incident already exists")
	ErrInvalidState         = errors.New("invalid incident state")
	ErrFinalCategoryMissing = errors.New("final category required before closing")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDepartmentRequired   = errors.New("department required")
)

// MapHTTPStatus maps incident and state machine errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidState) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFinalCategoryMissing) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrDepartmentRequired) {
		return http.StatusBadRequest
	}
	return statemachine.MapHTTPStatus(err)
}
