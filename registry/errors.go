package registry

import "errors"

// ErrNotRegistered is returned when a caller addresses a client_id that
// has no registered stream (spec.md §4.G).
var ErrNotRegistered = errors.New("client has no registered stream")
