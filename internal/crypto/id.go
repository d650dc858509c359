package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRequestID returns a fresh 16-byte random correlation id in hex. The
// space is large enough that ids are never reused within a session.
func NewRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failure means the process cannot do anything useful.
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
