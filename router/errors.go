package router

import "errors"

// ErrPublishOutOfPktIds is returned when fan-out to a subscriber needs
// a new packet id but the generator is exhausted (spec.md §4.H).
var ErrPublishOutOfPktIds = errors.New("publish out of packet ids")
