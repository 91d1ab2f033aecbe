package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

const shortLen = 12

// HashStrings returns a SHA256 hash of the provided strings with newline separators.
func HashStrings(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashBytes returns the hex SHA256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Short truncates a hex digest for log lines.
func Short(digest string) string {
	if len(digest) <= shortLen {
		return digest
	}
	return digest[:shortLen]
}
