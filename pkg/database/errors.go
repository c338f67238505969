package database

import "errors"

// ErrNotReady wraps connection and ping failures, at startup and from
// the readiness probe.
var ErrNotReady = errors.New("database not ready")
