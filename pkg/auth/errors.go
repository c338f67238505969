package auth

import "errors"

// ErrUnauthenticated is returned for missing, malformed or unverifiable
// bearer tokens.
var ErrUnauthenticated = errors.New("unauthenticated")
