package model

import (
	"fmt"
	"strings"
)

// Accessibility selects when an item's secret can be read. Values are the
// native protection-domain identifiers so they can be written into a
// Dictionary unchanged.
type Accessibility string

const (
	AccessibleWhenUnlocked                   Accessibility = "ak"
	AccessibleAfterFirstUnlock               Accessibility = "ck"
	AccessibleAlways                         Accessibility = "dk"
	AccessibleWhenPasscodeSetThisDeviceOnly  Accessibility = "akpu"
	AccessibleWhenUnlockedThisDeviceOnly     Accessibility = "aku"
	AccessibleAfterFirstUnlockThisDeviceOnly Accessibility = "cku"
	AccessibleAlwaysThisDeviceOnly           Accessibility = "dku"
)

var accessibilityNames = map[string]Accessibility{
	"when_unlocked":                       AccessibleWhenUnlocked,
	"after_first_unlock":                  AccessibleAfterFirstUnlock,
	"always":                              AccessibleAlways,
	"when_passcode_set_this_device_only":  AccessibleWhenPasscodeSetThisDeviceOnly,
	"when_unlocked_this_device_only":      AccessibleWhenUnlockedThisDeviceOnly,
	"after_first_unlock_this_device_only": AccessibleAfterFirstUnlockThisDeviceOnly,
	"always_this_device_only":             AccessibleAlwaysThisDeviceOnly,
}

// ParseAccessibility accepts either the readable name ("after_first_unlock")
// or the native identifier ("ck"). An empty string parses to the unset value.
func ParseAccessibility(s string) (Accessibility, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if a, ok := accessibilityNames[s]; ok {
		return a, nil
	}
	if a := Accessibility(s); a.Valid() {
		return a, nil
	}
	return "", fmt.Errorf("unknown accessibility %q", s)
}

// Valid reports whether a is one of the known native identifiers.
func (a Accessibility) Valid() bool {
	for _, known := range accessibilityNames {
		if a == known {
			return true
		}
	}
	return false
}

// Name returns the readable name of a, or the raw value when unknown.
func (a Accessibility) Name() string {
	for name, known := range accessibilityNames {
		if a == known {
			return name
		}
	}
	return string(a)
}

// SynchronizationMode controls whether an item takes part in cross-device sync.
type SynchronizationMode int

const (
	SynchronizationAny SynchronizationMode = iota // Store default on write, wildcard on match.
	SynchronizationNo
	SynchronizationYes
)

// ParseSynchronizationMode parses "any", "no" or "yes".
func ParseSynchronizationMode(s string) (SynchronizationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return SynchronizationAny, nil
	case "no", "false":
		return SynchronizationNo, nil
	case "yes", "true":
		return SynchronizationYes, nil
	default:
		return SynchronizationAny, fmt.Errorf("unknown synchronization mode %q", s)
	}
}

func (m SynchronizationMode) String() string {
	switch m {
	case SynchronizationNo:
		return "no"
	case SynchronizationYes:
		return "yes"
	default:
		return "any"
	}
}

// Backend selects which keychain surface a query targets.
type Backend int

const (
	BackendModern Backend = iota // Data-protection keychain.
	BackendLegacy                // File-based keychain, macOS only.
)

func (b Backend) String() string {
	if b == BackendLegacy {
		return "legacy"
	}
	return "modern"
}
