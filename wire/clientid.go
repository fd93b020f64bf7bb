package wire

import (
	"crypto/rand"
	"encoding/hex"
)

// newAssignedClientID generates a server-assigned client identifier for
// a CONNECT with an empty client_id and CLEAN_SESSION set (spec.md
// §4.C), matching the crypto/rand+hex idiom the teacher repo uses in
// session/manager.go for the same purpose.
func newAssignedClientID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "auto-" + hex.EncodeToString(b[:]), nil
}
