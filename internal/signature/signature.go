package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Header carries the chat platform's payload MAC.
const Header = "X-Hub-Signature-256"

const headerPrefix = "sha256="

// Verifier checks the keyed MAC the chat platform computes over delivery
// payloads. The gateway and the worker both hold one so neither side has to
// trust the other (defense in depth), but they share this single routine.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a verifier for the configured app secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign computes the header value for a payload. Used by tests and by the
// gateway when re-forwarding raw bodies.
func (v *Verifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return headerPrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the header against the exact raw payload bytes. Verification
// over a re-serialized parse would reject legitimate signatures, so callers
// must pass the body exactly as read off the wire.
func (v *Verifier) Verify(payload []byte, header string) bool {
	if len(v.secret) == 0 {
		return false
	}
	encoded, ok := strings.CutPrefix(header, headerPrefix)
	if !ok || encoded == "" {
		return false
	}
	provided, err := hex.DecodeString(encoded)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), provided)
}
