package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSnapshotCompatibility(t *testing.T) {
	tests := []struct {
		name            string
		binaryVersion   string
		snapshotVersion string
		expectError     bool
		errorContains   string
	}{
		{
			name:            "exact match",
			binaryVersion:   "1.2.0",
			snapshotVersion: "1.2.0",
		},
		{
			name:            "older minor snapshot",
			binaryVersion:   "1.3.0",
			snapshotVersion: "1.0.4",
		},
		{
			name:            "newer patch snapshot",
			binaryVersion:   "1.2.0",
			snapshotVersion: "1.2.5",
		},
		{
			name:            "legacy snapshot without version",
			binaryVersion:   "1.2.0",
			snapshotVersion: "",
		},
		{
			name:            "major version differs",
			binaryVersion:   "2.0.0",
			snapshotVersion: "1.2.0",
			expectError:     true,
			errorContains:   "major version mismatch",
		},
		{
			name:            "binary is main",
			binaryVersion:   "main",
			snapshotVersion: "3.0.0",
		},
		{
			name:            "snapshot is main",
			binaryVersion:   "1.0.0",
			snapshotVersion: "main",
		},
		{
			name:            "v prefix on both",
			binaryVersion:   "v1.2.0",
			snapshotVersion: "v1.9.0",
		},
		{
			name:            "invalid binary version",
			binaryVersion:   "not-a-version",
			snapshotVersion: "1.2.0",
			expectError:     true,
			errorContains:   "invalid binary version",
		},
		{
			name:            "invalid snapshot version",
			binaryVersion:   "1.2.0",
			snapshotVersion: "x.y",
			expectError:     true,
			errorContains:   "invalid snapshot version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSnapshotCompatibility(tt.binaryVersion, tt.snapshotVersion)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "v9.9.9"
	assert.Equal(t, "v9.9.9", GetVersion())
}
