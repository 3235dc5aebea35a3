package audit

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint derives a stable identifier for a token so audit entries can
// reference it without storing the secret value.
func Fingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
