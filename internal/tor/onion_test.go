package tor

import "testing"

// duckduckgoV3 is DuckDuckGo's published v3 onion address, used as a
// known-good checksum fixture.
const duckduckgoV3 = "duckduckgogg42xjoc72x3sjasowoarfbgcmvfimaftt6twagswzczad.onion"

func TestIsValidV3Address(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"known good address", duckduckgoV3, true},
		{"uppercase is normalized", "DUCKDUCKGOGG42XJOC72X3SJASOWOARFBGCMVFIMAFTT6TWAGSWZCZAD.ONION", true},
		{"corrupted checksum", "duckduckgogg42xjoc72x3sjasowoarfbgcmvfimaftt6twagswzczae.onion", false},
		{"too short", "abcdefghijklmnop.onion", false},
		{"too long", duckduckgoV3 + "x", false},
		{"invalid base32 characters", "duckduckgogg42xjoc72x3sjasowoarfbgcmvfimaftt6twagswzcza1.onion", false},
		{"missing suffix", "duckduckgogg42xjoc72x3sjasowoarfbgcmvfimaftt6twagswzczad", false},
		{"clearnet domain", "example.com", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidV3Address(tt.address); got != tt.want {
				t.Errorf("IsValidV3Address(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestIsValidV2Address(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"expyuzz4wqqyqhjn.onion", true},
		{"EXPYUZZ4WQQYQHJN.onion", true},
		{"tooshort.onion", false},
		{duckduckgoV3, false},
		{"expyuzz4wqqyqhj0.onion", false}, // 0 and 1 are not base32
		{"example.com", false},
	}

	for _, tt := range tests {
		if got := IsValidV2Address(tt.address); got != tt.want {
			t.Errorf("IsValidV2Address(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestIsStandardAddress(t *testing.T) {
	t.Parallel()

	if !IsStandardAddress(duckduckgoV3) {
		t.Error("valid v3 address not recognized")
	}
	if !IsStandardAddress("expyuzz4wqqyqhjn.onion") {
		t.Error("valid v2 address not recognized")
	}
	if IsStandardAddress("hidden-wiki.onion") {
		t.Error("vanity word accepted as standard address")
	}
}
