package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionSuffix is the common suffix for all onion addresses.
	OnionSuffix = ".onion"

	// onionV3Version is the version byte encoded in v3 addresses.
	onionV3Version = 0x03
)

// onionV3Pattern matches v3 onion addresses: 56 base32 characters
// (lowercase a-z, digits 2-7) plus the suffix.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// onionV2Pattern matches the deprecated v2 format (16 characters).
// The frontier still holds plenty of dead v2 addresses, so we keep
// recognizing them for statistics even though Tor dropped them in 2021.
var onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)

// checksumPrefix is defined by the Tor rendezvous specification for v3
// address checksums.
var checksumPrefix = []byte(".onion checksum")

// IsValidV3Address reports whether address is a well-formed v3 onion
// address with a correct embedded checksum. Full checksum validation
// catches the obfuscated or typo'd addresses that domain defragmenting
// alone cannot, which is why the crawler logs a warning when it
// enqueues a domain failing this check.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	encoded := strings.TrimSuffix(address, OnionSuffix)
	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(encoded))
	if err != nil {
		return false
	}

	// 32 bytes ed25519 public key, 2 bytes checksum, 1 byte version.
	if len(decoded) != 35 {
		return false
	}
	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]

	if version != onionV3Version {
		return false
	}

	expected := v3Checksum(pubkey, version)
	return checksum[0] == expected[0] && checksum[1] == expected[1]
}

// v3Checksum computes the first two bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func v3Checksum(pubkey []byte, version byte) [2]byte {
	h := sha3.New256()
	h.Write(checksumPrefix)
	h.Write(pubkey)
	h.Write([]byte{version})
	sum := h.Sum(nil)
	return [2]byte{sum[0], sum[1]}
}

// IsValidV2Address reports whether address matches the deprecated v2
// onion format. V2 has no verifiable checksum, so this is pattern-only.
func IsValidV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// IsStandardAddress reports whether a registrable onion domain looks
// like a real v2 or v3 address. Non-standard domains still get crawled
// (scope is decided by urlutil.IsOnion), but they are flagged in logs
// as likely obfuscation.
func IsStandardAddress(domain string) bool {
	return IsValidV3Address(domain) || IsValidV2Address(domain)
}
