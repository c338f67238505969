package statemachine

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrRoleNotAllowed         = errors.New("role not allowed")
)

// MapHTTPStatus maps transition errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidStateTransition) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRoleNotAllowed) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
