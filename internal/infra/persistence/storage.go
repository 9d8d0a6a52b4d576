package persistence

import "errors"

// ErrObjectNotFound is returned when the requested bucket object does not exist.
var ErrObjectNotFound = errors.New("object not found")
