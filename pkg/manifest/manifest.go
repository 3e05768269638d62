// Package manifest parses the remote source formats a Polkadot SDK release
// publishes its crate versions in.
//
// Two formats exist, tried in order by the resolver:
//
//   - Plan.toml (release plan): one [[crate]] record per crate transition,
//     listing the version the crate moves from and to for the release.
//   - Cargo.lock (resolved snapshot): one [[package]] record per package in
//     the SDK workspace at the release ref.
//
// Both parse into the same normalized shape, a crate-name to version
// mapping, with format-specific inclusion rules documented on [Parse].
package manifest

import (
	"github.com/BurntSushi/toml"

	"github.com/substrate-tools/psvm/pkg/errors"
)

// SourceKind identifies which remote source format a raw text is in.
type SourceKind string

const (
	// SourcePlan is the release-plan format (Plan.toml).
	SourcePlan SourceKind = "Plan.toml"

	// SourceLock is the resolved lock-file format (Cargo.lock).
	SourceLock SourceKind = "Cargo.lock"
)

// placeholderVersion marks a plan entry that carries no real transition.
const placeholderVersion = "0.0.0"

// Parse converts raw source text of the given kind into a crate-name to
// version mapping.
//
// Inclusion rules:
//
//   - SourceLock: only packages without a source marker are included. A
//     source marker means the package was pulled in from an external
//     registry; the marker-less entries are the SDK workspace members
//     themselves, which are exactly the crates the release pins.
//   - SourcePlan: a record is included when its publish flag is absent or
//     true. A record with publish = false is still included when
//     publicCrates contains the crate name and the transition is not the
//     0.0.0 placeholder; those crates are "do not republish" entries whose
//     already-published version consumers must still track.
//
// publicCrates is only consulted for SourcePlan and may be nil.
//
// An unknown kind is a caller bug and fails with ErrCodeUnsupportedSource;
// text that does not parse as the expected shape fails with
// ErrCodeMalformedInput.
func Parse(raw string, kind SourceKind, publicCrates map[string]struct{}) (map[string]string, error) {
	switch kind {
	case SourcePlan:
		return parsePlan(raw, publicCrates)
	case SourceLock:
		return parseLock(raw)
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedSource, "unknown source kind %q", kind)
	}
}

type planFile struct {
	Crates []planEntry `toml:"crate"`
}

type planEntry struct {
	Name    string `toml:"name"`
	From    string `toml:"from"`
	To      string `toml:"to"`
	Publish *bool  `toml:"publish"`
}

func parsePlan(raw string, publicCrates map[string]struct{}) (map[string]string, error) {
	var plan planFile
	if err := toml.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "release plan does not parse")
	}

	mapping := make(map[string]string, len(plan.Crates))
	for _, c := range plan.Crates {
		if c.Name == "" || c.To == "" {
			continue
		}
		if !includePlanEntry(c, publicCrates) {
			continue
		}
		mapping[c.Name] = c.To
	}
	return mapping, nil
}

func includePlanEntry(c planEntry, publicCrates map[string]struct{}) bool {
	if c.Publish == nil || *c.Publish {
		return true
	}
	// publish = false: keep only known-public crates with a real transition.
	if _, ok := publicCrates[c.Name]; !ok {
		return false
	}
	return !(c.From == placeholderVersion && c.To == placeholderVersion)
}

type lockFile struct {
	Packages []lockEntry `toml:"package"`
}

type lockEntry struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Source  string `toml:"source"`
}

func parseLock(raw string) (map[string]string, error) {
	var lock lockFile
	if err := toml.Unmarshal([]byte(raw), &lock); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "lock file does not parse")
	}

	mapping := make(map[string]string, len(lock.Packages))
	for _, p := range lock.Packages {
		// External-registry packages carry a source marker; skip them.
		if p.Source != "" {
			continue
		}
		if p.Name == "" || p.Version == "" {
			continue
		}
		mapping[p.Name] = p.Version
	}
	return mapping, nil
}
