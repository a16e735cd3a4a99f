package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessibility(t *testing.T) {
	tests := []struct {
		in      string
		want    Accessibility
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "after_first_unlock", want: AccessibleAfterFirstUnlock},
		{in: " When_Unlocked ", want: AccessibleWhenUnlocked},
		{in: "dku", want: AccessibleAlwaysThisDeviceOnly},
		{in: "akpu", want: AccessibleWhenPasscodeSetThisDeviceOnly},
		{in: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccessibility(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessibility_ValidAndName(t *testing.T) {
	assert.True(t, AccessibleAfterFirstUnlockThisDeviceOnly.Valid())
	assert.False(t, Accessibility("zz").Valid())
	assert.False(t, Accessibility("").Valid())

	assert.Equal(t, "after_first_unlock_this_device_only", AccessibleAfterFirstUnlockThisDeviceOnly.Name())
	assert.Equal(t, "zz", Accessibility("zz").Name())
}

func TestParseSynchronizationMode(t *testing.T) {
	for in, want := range map[string]SynchronizationMode{
		"":    SynchronizationAny,
		"any": SynchronizationAny,
		"YES": SynchronizationYes,
		"no":  SynchronizationNo,
	} {
		got, err := ParseSynchronizationMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSynchronizationMode("maybe")
	assert.Error(t, err)
	assert.Equal(t, "yes", SynchronizationYes.String())
}

func TestBackend_String(t *testing.T) {
	assert.Equal(t, "modern", BackendModern.String())
	assert.Equal(t, "legacy", BackendLegacy.String())
}
