package policy

import (
	"strings"

	"github.com/clearway/sentinel/internal/domain"
)

// Connection types in precedence order hosting > proxy > direct.
const (
	ConnectionHosting = "hosting"
	ConnectionProxy   = "proxy"
	ConnectionDirect  = "direct"
)

// ClassifyOS identifies the operating system from a user-agent string.
// Android is checked before Linux and iOS before macOS: Android agents
// contain "Linux" and iOS agents contain "like Mac OS X".
func ClassifyOS(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		return "iOS"
	case strings.Contains(ua, "mac os"), strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}

// ClassifyConnection maps lookup flags to a connection type.
func ClassifyConnection(hosting, proxy bool) string {
	switch {
	case hosting:
		return ConnectionHosting
	case proxy:
		return ConnectionProxy
	default:
		return ConnectionDirect
	}
}

// DeriveDeviceMetadata builds registry metadata from client signals.
func DeriveDeviceMetadata(userAgent, timezone string) domain.DeviceMetadata {
	os := ClassifyOS(userAgent)
	browser := classifyBrowser(userAgent)
	devType := classifyDeviceType(userAgent)

	name := devType
	if os != "Unknown" {
		name = os + " " + devType
	}
	return domain.DeviceMetadata{
		Name:     name,
		Type:     devType,
		OS:       os,
		Browser:  browser,
		Timezone: timezone,
	}
}

func classifyBrowser(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "edg/"):
		return "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "firefox/"):
		return "Firefox"
	case strings.Contains(ua, "chrome/"):
		return "Chrome"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	default:
		return "Unknown"
	}
}

func classifyDeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
		return "tablet"
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "iphone"), strings.Contains(ua, "android"):
		return "mobile"
	default:
		return "desktop"
	}
}
