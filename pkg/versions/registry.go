package versions

import (
	"embed"
	"encoding/json"
	"maps"
	"path"
	"sort"
	"strings"

	"github.com/substrate-tools/psvm/pkg/errors"
)

//go:embed releases/*.json
var releasesFS embed.FS

// Registry holds crate mappings for historical SDK releases whose branches
// predate the release plan. Lookups are answered locally, so these versions
// resolve without network access.
type Registry struct {
	releases map[string]map[string]string
}

// NewEmbeddedRegistry loads the datasets compiled into the binary. Each
// file under releases/ is named release-crates-io-v<version>.json and
// holds a single crate-name to version object.
func NewEmbeddedRegistry() (*Registry, error) {
	entries, err := releasesFS.ReadDir("releases")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read embedded releases")
	}

	releases := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		version := strings.TrimSuffix(strings.TrimPrefix(name, sdkBranchPrefix), ".json")

		data, err := releasesFS.ReadFile(path.Join("releases", name))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read embedded release %s", name)
		}
		var mapping map[string]string
		if err := json.Unmarshal(data, &mapping); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode embedded release %s", name)
		}
		releases[version] = mapping
	}
	return &Registry{releases: releases}, nil
}

// Lookup returns a copy of the mapping for version, if registered.
func (r *Registry) Lookup(version string) (map[string]string, bool) {
	mapping, ok := r.releases[version]
	if !ok {
		return nil, false
	}
	return maps.Clone(mapping), true
}

// Versions lists the registered release versions in ascending order.
func (r *Registry) Versions() []string {
	out := make([]string, 0, len(r.releases))
	for v := range r.releases {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
