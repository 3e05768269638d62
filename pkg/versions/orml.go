package versions

import (
	"context"
	"slices"
	"strings"

	"github.com/substrate-tools/psvm/pkg/errors"
	"github.com/substrate-tools/psvm/pkg/integrations/github"
)

const (
	ormlOwner = "open-runtime-module-library"
	ormlRepo  = "open-runtime-module-library"

	// ORML tracks SDK releases with branches named polkadot-v<version>.
	ormlBranchPrefix = "polkadot-v"

	// ormlDevManifest is the workspace manifest on ORML release branches
	// that carries the member list and the shared crate version.
	ormlDevManifest = "Cargo.dev.toml"

	ormlCratePrefix = "orml-"
)

// augmentOrml merges the ORML crate family for version into mapping,
// overwriting any colliding names. A version with no matching ORML release
// is left untouched.
func (r *Resolver) augmentOrml(ctx context.Context, version string, mapping map[string]string, refresh bool) error {
	available, err := r.OrmlVersions(ctx, refresh)
	if err != nil {
		return err
	}
	if !slices.Contains(available, version) {
		r.logger.Info("no matching ORML release, skipping", "version", version)
		return nil
	}

	raw, err := r.github.FetchRaw(ctx, ormlOwner, ormlRepo, ormlBranchPrefix+version, ormlDevManifest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch ORML manifest for version %s", version)
	}

	members, crateVersion, err := parseOrmlManifest(raw)
	if err != nil {
		return err
	}
	for _, member := range members {
		mapping[ormlCrateName(member)] = crateVersion
	}
	return nil
}

// OrmlVersions lists the SDK versions ORML publishes release branches for.
func (r *Resolver) OrmlVersions(ctx context.Context, refresh bool) ([]string, error) {
	var out []string
	err := r.github.Cached(ctx, "releases:"+ormlRepo, refresh, &out, func() error {
		branches, err := r.github.ListBranches(ctx, ormlOwner, ormlRepo)
		if err != nil {
			return err
		}
		out = github.FilterByPrefix(branches, ormlBranchPrefix)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list ORML releases")
	}
	return out, nil
}

// parseOrmlManifest extracts the workspace member list and the shared
// crate version from the ORML dev manifest. The file is scanned line by
// line; only the members array and the first version assignment matter,
// so no full TOML parse is needed.
func parseOrmlManifest(raw string) (members []string, version string, err error) {
	inMembers := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "members"):
			inMembers = true
		case inMembers && strings.HasPrefix(line, "]"):
			inMembers = false
		case inMembers:
			if m := strings.Trim(line, `", `); m != "" && !strings.HasPrefix(m, "#") {
				members = append(members, strings.TrimPrefix(m, "./"))
			}
		case version == "" && strings.HasPrefix(line, "version ="):
			version = strings.Trim(strings.TrimPrefix(line, "version ="), `" `)
		}
	}
	if len(members) == 0 || version == "" {
		return nil, "", errors.New(errors.ErrCodeMalformedInput, "ORML manifest missing members or version")
	}
	return members, version, nil
}

// ormlCrateName maps a workspace member directory to its published crate
// name. Nested members publish under their last path segment.
func ormlCrateName(member string) string {
	if i := strings.LastIndexByte(member, '/'); i >= 0 {
		member = member[i+1:]
	}
	return ormlCratePrefix + member
}
