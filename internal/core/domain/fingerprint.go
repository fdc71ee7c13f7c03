package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the stable content hash used as cache and dedup key.
// Text is lowercased and whitespace-collapsed first so trivial formatting
// differences map to the same analysis.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
