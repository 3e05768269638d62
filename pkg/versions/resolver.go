// Package versions resolves the crate-name to version mapping for a
// Polkadot SDK release.
//
// For a given release identifier the resolver fetches the release plan
// (Plan.toml) at the release ref, falling back to the resolved lock file
// (Cargo.lock) when the plan cannot be fetched, and parses whichever was
// retrieved with pkg/manifest. Historical releases that predate Plan.toml
// are served from an embedded [Registry] without touching the network.
// On request the mapping is augmented with the ORML crate family, an
// independently versioned sibling namespace tracked by release branch.
package versions

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/substrate-tools/psvm/pkg/errors"
	"github.com/substrate-tools/psvm/pkg/integrations/crates"
	"github.com/substrate-tools/psvm/pkg/integrations/github"
	"github.com/substrate-tools/psvm/pkg/manifest"
)

const (
	sdkOwner = "paritytech"
	sdkRepo  = "polkadot-sdk"

	// sdkBranchPrefix is the release branch naming scheme for crates.io
	// releases of the SDK.
	sdkBranchPrefix = "release-crates-io-v"
)

// Resolver derives version mappings from the SDK's remote release data.
// Construct with [NewResolver]; the zero value is not usable.
type Resolver struct {
	github   *github.Client
	crates   *crates.Client
	registry *Registry
	logger   *log.Logger
}

// Options control a single resolution.
type Options struct {
	// IncludeOrml augments the mapping with the ORML crate family when a
	// matching ORML release exists. Missing ORML releases are skipped
	// silently, never an error.
	IncludeOrml bool

	// Refresh bypasses cached remote listings.
	Refresh bool
}

// NewResolver creates a resolver over the given clients. registry may be
// nil to disable the embedded historical datasets; logger may be nil to
// discard diagnostics.
func NewResolver(gh *github.Client, cr *crates.Client, registry *Registry, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{github: gh, crates: cr, registry: registry, logger: logger}
}

// Resolve returns the crate-name to version mapping for an SDK release.
//
// The release plan is strictly preferred; the lock file is attempted only
// when the plan cannot be fetched, and the two are never merged. Once a
// source is fetched, a parse failure is the resolution's failure — there is
// no further fallback. ORML augmentation, when requested, is applied last
// and overwrites colliding names.
//
// The returned mapping is built fresh per call and owned by the caller.
func (r *Resolver) Resolve(ctx context.Context, version string, opts Options) (map[string]string, error) {
	mapping, err := r.resolveSDK(ctx, version)
	if err != nil {
		return nil, err
	}

	if opts.IncludeOrml {
		if err := r.augmentOrml(ctx, version, mapping, opts.Refresh); err != nil {
			return nil, err
		}
	}
	return mapping, nil
}

func (r *Resolver) resolveSDK(ctx context.Context, version string) (map[string]string, error) {
	if r.registry != nil {
		if mapping, ok := r.registry.Lookup(version); ok {
			r.logger.Debug("serving version from embedded registry", "version", version)
			return mapping, nil
		}
	}

	ref := ReleaseRef(version)

	raw, err := r.github.FetchRaw(ctx, sdkOwner, sdkRepo, ref, string(manifest.SourcePlan))
	if err == nil {
		return manifest.Parse(raw, manifest.SourcePlan, r.knownPublicCrates(ctx))
	}
	r.logger.Debug("release plan unavailable, falling back to lock file", "ref", ref, "err", err)

	raw, lockErr := r.github.FetchRaw(ctx, sdkOwner, sdkRepo, ref, string(manifest.SourceLock))
	if lockErr != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, lockErr,
			"no release manifest found for version %s (plan: %v)", version, err)
	}
	return manifest.Parse(raw, manifest.SourceLock, nil)
}

// knownPublicCrates returns the Parity publisher crate set. Registry
// failures degrade to an empty set: publish = false plan entries are then
// excluded, which only makes the mapping smaller, never wrong.
func (r *Resolver) knownPublicCrates(ctx context.Context) map[string]struct{} {
	if r.crates == nil {
		return nil
	}
	set, err := r.crates.KnownPublicCrates(ctx, false)
	if err != nil {
		r.logger.Warn("could not list known public crates", "err", err)
		return nil
	}
	return set
}

// SDKVersions lists the release identifiers available upstream: crates.io
// release branches plus stable release tags. Results are cached; refresh
// bypasses and repopulates the cache.
func (r *Resolver) SDKVersions(ctx context.Context, refresh bool) ([]string, error) {
	var out []string
	err := r.github.Cached(ctx, "releases:"+sdkRepo, refresh, &out, func() error {
		branches, err := r.github.ListBranches(ctx, sdkOwner, sdkRepo)
		if err != nil {
			return err
		}
		out = github.FilterByPrefix(branches, sdkBranchPrefix)

		tags, err := r.github.ListTags(ctx, sdkOwner, sdkRepo)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if v, ok := StableVersion(tag); ok {
				out = append(out, v)
			}
		}
		if r.registry != nil {
			for _, v := range r.registry.Versions() {
				if !slices.Contains(out, v) {
					out = append(out, v)
				}
			}
		}
		sort.Strings(out)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list SDK versions: %w", err)
	}
	return out, nil
}
