package versions

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SupportedManifestVersion is the newest manifest format this build understands
const SupportedManifestVersion = "1.0.0"

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion.
// It uses semantic versioning for comparison when both strings are valid semver,
// and falls back to lexicographic string comparison otherwise.
func IsNewerVersion(newVersion, oldVersion string) bool {
	newSemver, errNew := semver.NewVersion(newVersion)
	oldSemver, errOld := semver.NewVersion(oldVersion)

	if errNew != nil || errOld != nil {
		return newVersion > oldVersion
	}

	return newSemver.GreaterThan(oldSemver)
}

// CheckManifestVersion verifies that a manifest declaring version can be read.
// Manifests without a version are treated as the first format. Any version with the
// same major as SupportedManifestVersion, up to and including it, is accepted.
func CheckManifestVersion(version string) error {
	if version == "" {
		return nil
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid manifest version '%s': %w", version, err)
	}

	supported := semver.MustParse(SupportedManifestVersion)
	if v.Major() != supported.Major() || v.GreaterThan(supported) {
		return fmt.Errorf("manifest version %s is not supported, this build reads up to %s",
			version, SupportedManifestVersion)
	}
	return nil
}
