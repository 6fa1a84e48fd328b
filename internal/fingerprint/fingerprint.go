// Package fingerprint derives stable device identifiers from client signals.
package fingerprint

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

// placeholder substitutes missing secondary signals so the hash input shape
// is stable.
const placeholder = "unknown"

// Signals are the optional secondary inputs collected client-side.
type Signals struct {
	ScreenResolution string
	Timezone         string
	Seed             string // client-provided fingerprint seed, when available
}

// Device computes a deterministic 32-hex-char fingerprint from the user agent
// and available signals. Same inputs always produce the same fingerprint.
func Device(userAgent string, signals Signals) string {
	parts := []string{
		userAgent,
		orPlaceholder(signals.ScreenResolution),
		orPlaceholder(signals.Timezone),
		orPlaceholder(signals.Seed),
	}
	h1, h2 := murmur3.Sum128([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%016x%016x", h1, h2)
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
