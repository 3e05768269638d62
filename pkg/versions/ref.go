package versions

import (
	"regexp"
	"strings"
)

// stableTagPrefix marks stable release tags in the SDK repository,
// e.g. polkadot-stable2407 or polkadot-stable2409-2.
const stableTagPrefix = "polkadot-"

var stablePattern = regexp.MustCompile(`^stable\d{4}(-\d+)?(-rc\d+)?$`)

// ReleaseRef maps a user-supplied version to the git ref holding its
// release data. Stable identifiers resolve to the tag name; everything
// else is treated as a crates.io release version and resolves to its
// release branch.
func ReleaseRef(version string) string {
	if stablePattern.MatchString(strings.TrimPrefix(version, stableTagPrefix)) {
		if strings.HasPrefix(version, stableTagPrefix) {
			return version
		}
		return stableTagPrefix + version
	}
	return sdkBranchPrefix + version
}

// StableVersion reports whether tag names a stable release, returning the
// short identifier users pass on the command line ("stable2407").
func StableVersion(tag string) (string, bool) {
	short := strings.TrimPrefix(tag, stableTagPrefix)
	if short == tag || !stablePattern.MatchString(short) {
		return "", false
	}
	return short, true
}
