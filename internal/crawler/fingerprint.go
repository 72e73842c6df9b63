package crawler

import (
	"crypto/sha1" //nolint:gosec // Change detection, not integrity protection
	"encoding/hex"
)

// Fingerprint returns the hex SHA-1 digest of a page body. The digest
// is a change detector for skipping re-extraction of unchanged pages,
// not a security control, so SHA-1's weaknesses do not matter here and
// the shorter digest keeps the urls table smaller.
func Fingerprint(body []byte) string {
	sum := sha1.Sum(body) //nolint:gosec // Change detection, not integrity protection
	return hex.EncodeToString(sum[:])
}

// HasChanged reports whether a freshly computed fingerprint differs
// from the stored one. An empty stored fingerprint always counts as
// changed.
func HasChanged(fingerprint, stored string) bool {
	return stored == "" || fingerprint != stored
}
