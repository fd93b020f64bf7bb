package session

import "errors"

// ErrNoSession is returned when a handler needs a session for a
// connection that hasn't completed CONNECT (spec.md §4.I).
var ErrNoSession = errors.New("no session for connection")
