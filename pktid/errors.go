package pktid

import "errors"

// ErrExhausted is returned by Gen when all 65535 ids are in use.
var ErrExhausted = errors.New("packet identifier space exhausted")
