package model

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// OSFamily names an operating-system family.
type OSFamily string

const (
	FamilyMacOS   OSFamily = "macos"
	FamilyIOS     OSFamily = "ios"
	FamilyLinux   OSFamily = "linux"
	FamilyWindows OSFamily = "windows"
	FamilyOther   OSFamily = "other"
)

// ParseOSFamily maps GOOS-style and marketing names onto an OSFamily.
func ParseOSFamily(s string) OSFamily {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "macos", "darwin", "osx", "mac":
		return FamilyMacOS
	case "ios", "ipados":
		return FamilyIOS
	case "linux":
		return FamilyLinux
	case "windows":
		return FamilyWindows
	default:
		return FamilyOther
	}
}

// Platform describes the system a keychain runs on. Version is a dotted
// release number such as "14.2.1"; empty means unknown.
type Platform struct {
	Family  OSFamily
	Version string
}

var (
	syncIOS     = semver.MustParse("7.0")
	syncMacOS   = semver.MustParse("10.9")
	legacyMacOS = semver.MustParse("10.15")
)

// IsSynchronizationAvailable reports whether p supports the synchronizable
// attribute (iOS 7 and macOS 10.9 onwards).
func IsSynchronizationAvailable(p Platform) bool {
	switch p.Family {
	case FamilyIOS:
		return p.atLeast(syncIOS)
	case FamilyMacOS:
		return p.atLeast(syncMacOS)
	default:
		return false
	}
}

// IsLegacyModeAvailable reports whether p lets callers choose the file-based
// keychain over the data-protection keychain. Only macOS 10.15 onwards has
// both surfaces.
func IsLegacyModeAvailable(p Platform) bool {
	return p.Family == FamilyMacOS && p.atLeast(legacyMacOS)
}

func (p Platform) atLeast(floor *semver.Version) bool {
	v, err := semver.NewVersion(strings.TrimSpace(p.Version))
	if err != nil {
		return false
	}
	return !v.LessThan(floor)
}

func (p Platform) String() string {
	if p.Version == "" {
		return string(p.Family)
	}
	return string(p.Family) + " " + p.Version
}
