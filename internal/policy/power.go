package policy

import (
	"os"
	"strings"
)

// DefaultPlatformProfile is where Linux exposes the ACPI platform profile.
const DefaultPlatformProfile = "/sys/firmware/acpi/platform_profile"

// SysfsPowerMode reads the platform profile on every query. A missing or
// unreadable file means the platform has no power saving mode.
type SysfsPowerMode struct {
	Path string
}

func (s SysfsPowerMode) LowPowerEnabled() bool {
	path := s.Path
	if path == "" {
		path = DefaultPlatformProfile
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(b)) == "low-power"
}
