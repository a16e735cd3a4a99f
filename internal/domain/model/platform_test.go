package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformProbes(t *testing.T) {
	tests := []struct {
		name       string
		platform   Platform
		wantSync   bool
		wantLegacy bool
	}{
		{"ios 6", Platform{FamilyIOS, "6.1"}, false, false},
		{"ios 7", Platform{FamilyIOS, "7.0"}, true, false},
		{"ios 17", Platform{FamilyIOS, "17.4.1"}, true, false},
		{"macos 10.8", Platform{FamilyMacOS, "10.8.5"}, false, false},
		{"macos 10.9", Platform{FamilyMacOS, "10.9"}, true, false},
		{"macos 10.14", Platform{FamilyMacOS, "10.14.6"}, true, false},
		{"macos 10.15", Platform{FamilyMacOS, "10.15"}, true, true},
		{"macos 14", Platform{FamilyMacOS, "14"}, true, true},
		{"macos unknown version", Platform{FamilyMacOS, ""}, false, false},
		{"macos garbage version", Platform{FamilyMacOS, "sonoma"}, false, false},
		{"linux", Platform{FamilyLinux, "6.8.0"}, false, false},
		{"windows", Platform{FamilyWindows, "10.0.22631"}, false, false},
		{"other", Platform{FamilyOther, "99"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSync, IsSynchronizationAvailable(tt.platform))
			assert.Equal(t, tt.wantLegacy, IsLegacyModeAvailable(tt.platform))
			// Probes are pure.
			assert.Equal(t, IsSynchronizationAvailable(tt.platform), IsSynchronizationAvailable(tt.platform))
		})
	}
}

func TestParseOSFamily(t *testing.T) {
	assert.Equal(t, FamilyMacOS, ParseOSFamily("darwin"))
	assert.Equal(t, FamilyMacOS, ParseOSFamily("macOS"))
	assert.Equal(t, FamilyIOS, ParseOSFamily("ios"))
	assert.Equal(t, FamilyLinux, ParseOSFamily("linux"))
	assert.Equal(t, FamilyWindows, ParseOSFamily("windows"))
	assert.Equal(t, FamilyOther, ParseOSFamily("plan9"))
}

func TestPlatform_String(t *testing.T) {
	assert.Equal(t, "macos 14.4", Platform{FamilyMacOS, "14.4"}.String())
	assert.Equal(t, "linux", Platform{Family: FamilyLinux}.String())
}
