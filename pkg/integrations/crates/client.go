// Package crates provides access to the crates.io registry API.
//
// The only capability the resolver needs from crates.io is the set of
// crates owned by the Parity publisher team. A release plan marks some
// crates `publish = false` to avoid republishing, yet consuming projects
// still need their version bumped; the publisher set identifies those
// crates as public.
package crates

import (
	"context"
	"fmt"

	"github.com/substrate-tools/psvm/pkg/httputil"
	"github.com/substrate-tools/psvm/pkg/integrations"
)

// DefaultBaseURL is the crates.io API endpoint.
const DefaultBaseURL = "https://crates.io/api/v1"

// publisherTeam is the crates.io login of the team that owns the public
// Polkadot SDK crates.
const publisherTeam = "github:paritytech:crates-publishers"

const perPage = 100

// Client provides access to the crates.io package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// Note: crates.io requires a User-Agent header; this client sets one
// automatically.
type Client struct {
	*integrations.Client

	// BaseURL may be overridden before use, e.g. to point at a test server.
	BaseURL string
}

// NewClient creates a crates.io client. Pass nil for cache to disable
// response caching; the cache's own TTL governs entry expiry.
func NewClient(cache *httputil.Cache) *Client {
	headers := map[string]string{
		"User-Agent": "psvm/1.0 (https://github.com/substrate-tools/psvm)",
	}
	return &Client{
		Client:  integrations.NewClient(cache, headers),
		BaseURL: DefaultBaseURL,
	}
}

// KnownPublicCrates returns the set of crate names owned by the Parity
// publisher team, paginating through the registry listing.
//
// If refresh is true, the cache is bypassed and a fresh listing is fetched.
// The returned set is exposed to the parser as a completed set; pagination
// never leaks past this method.
func (c *Client) KnownPublicCrates(ctx context.Context, refresh bool) (map[string]struct{}, error) {
	key := "publishers:" + publisherTeam

	var names []string
	err := c.Cached(ctx, key, refresh, &names, func() error {
		var err error
		names, err = c.listTeamCrates(ctx, publisherTeam)
		return err
	})
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

func (c *Client) listTeamCrates(ctx context.Context, team string) ([]string, error) {
	var names []string
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/crates?team_id=%s&per_page=%d&page=%d", c.BaseURL, team, perPage, page)

		var data cratesResponse
		if err := c.Get(ctx, url, &data); err != nil {
			return nil, err
		}
		for _, cr := range data.Crates {
			names = append(names, cr.Name)
		}
		if len(data.Crates) < perPage {
			return names, nil
		}
	}
}

type cratesResponse struct {
	Crates []struct {
		Name string `json:"name"`
	} `json:"crates"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}
