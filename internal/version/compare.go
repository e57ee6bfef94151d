package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckSnapshotCompatibility checks if a state snapshot written by snapshotVersion can be
// read by a binary at binaryVersion.
//
// Compatibility Rules:
//   - An empty snapshot version (files written before versioning) is always accepted
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor and patch versions can differ
//
// Examples:
//   - Binary 1.2.0, Snapshot 1.0.3 -> OK
//   - Binary 1.2.0, Snapshot ""    -> OK (legacy snapshot)
//   - Binary 2.0.0, Snapshot 1.2.0 -> ERROR (major differs)
func CheckSnapshotCompatibility(binaryVersion, snapshotVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	snapshotVersion = strings.TrimPrefix(snapshotVersion, "v")

	if snapshotVersion == "" {
		return nil
	}

	if binaryVersion == "main" || snapshotVersion == "main" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return fmt.Errorf("invalid binary version '%s': %w", binaryVersion, err)
	}

	snapshotSemver, err := semver.NewVersion(snapshotVersion)
	if err != nil {
		return fmt.Errorf("invalid snapshot version '%s': %w", snapshotVersion, err)
	}

	if binarySemver.Major() != snapshotSemver.Major() {
		return fmt.Errorf("major version mismatch: binary is %d.x.x but snapshot was written by %d.x.x",
			binarySemver.Major(), snapshotSemver.Major())
	}

	return nil
}
