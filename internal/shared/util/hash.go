package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a filesystem-safe identifier for a caller namespace (API key, client IP).
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 12 hex characters of HashKey, for log fields.
func ShortHash(s string) string {
	return HashKey(s)[:12]
}
