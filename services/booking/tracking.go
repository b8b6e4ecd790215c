package booking

import (
	"crypto/rand"
	"fmt"
)

// Crockford base32: no I, L, O or U.
const trackingAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	trackingPrefix = "SB"
	trackingLength = 10
)

// NewTrackingNumber returns a random human-readable tracking token such as
// SB4K7QX2M9HC. Uniqueness is enforced by the store, not here.
func NewTrackingNumber() (string, error) {
	buf := make([]byte, trackingLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	out := make([]byte, trackingLength)
	for i, b := range buf {
		out[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return trackingPrefix + string(out), nil
}
