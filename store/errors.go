package store

import "errors"

// ErrStoreClosed is returned by PebbleStore.Close on an already closed
// store. Save, Load, Delete and Count after Close are silent no-ops.
var ErrStoreClosed = errors.New("retained message store is closed")
