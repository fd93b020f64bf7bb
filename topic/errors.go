package topic

import "errors"

// ErrWildcardFilter is returned when a filter contains a wildcard
// character; the caller (the SUBSCRIBE handler) maps this to a
// per-filter SubAck Failure code rather than closing the connection
// (spec.md §4.F, Non-goal: topic wildcards).
var ErrWildcardFilter = errors.New("wildcard topic filters are not supported")
