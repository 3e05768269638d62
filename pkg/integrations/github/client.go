// Package github provides access to GitHub raw file content and release
// branch/tag listings.
//
// Raw manifest files (Plan.toml, Cargo.lock, Cargo.dev.toml) are fetched
// from raw.githubusercontent.com, which needs no authentication. Branch and
// tag listings go through the REST API, which is rate-limited for anonymous
// callers; when a listing request fails the client falls back to invoking
// the local `gh` CLI, which carries the user's own credentials.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/substrate-tools/psvm/pkg/httputil"
	"github.com/substrate-tools/psvm/pkg/integrations"
)

const (
	// DefaultRawServer serves raw file content by branch or tag.
	DefaultRawServer = "https://raw.githubusercontent.com"

	// DefaultAPIServer is the GitHub REST API endpoint.
	DefaultAPIServer = "https://api.github.com"

	perPage = 100
)

// Client provides access to GitHub raw content and repository listings.
// It handles HTTP requests with caching, automatic retries, and an optional
// `gh` CLI fallback for the rate-limited API endpoints.
type Client struct {
	*integrations.Client

	// RawServer and APIServer may be overridden before use, e.g. to point
	// at a test server or a GitHub Enterprise host.
	RawServer string
	APIServer string

	// GHTool is the command invoked as an API fallback. Empty disables the
	// fallback.
	GHTool string
}

// NewClient creates a GitHub client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower
// rate limits, mitigated by the `gh` fallback). Pass nil for cache to
// disable response caching.
func NewClient(token string, cache *httputil.Cache) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return &Client{
		Client:    integrations.NewClient(cache, headers),
		RawServer: DefaultRawServer,
		APIServer: DefaultAPIServer,
		GHTool:    "gh",
	}
}

// FetchRaw retrieves the raw content of a file at a branch or tag.
// Returns [integrations.ErrNotFound] when the ref or file does not exist,
// which the resolver treats as "try the next source".
func (c *Client) FetchRaw(ctx context.Context, owner, repo, ref, file string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s", c.RawServer, owner, repo, ref, file)
	return c.GetText(ctx, url)
}

// ListBranches returns the names of all branches of a repository,
// paginating through the API until a short page is returned.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]string, error) {
	return c.listRefs(ctx, owner, repo, "branches")
}

// ListTags returns the names of all tags of a repository.
func (c *Client) ListTags(ctx context.Context, owner, repo string) ([]string, error) {
	return c.listRefs(ctx, owner, repo, "tags")
}

func (c *Client) listRefs(ctx context.Context, owner, repo, kind string) ([]string, error) {
	var names []string
	for page := 1; ; page++ {
		path := fmt.Sprintf("repos/%s/%s/%s?per_page=%d&page=%d", owner, repo, kind, perPage, page)

		var refs []refResponse
		if err := c.Get(ctx, c.APIServer+"/"+path, &refs); err != nil {
			refs, err = c.listRefsViaTool(ctx, path)
			if err != nil {
				return nil, err
			}
		}

		for _, r := range refs {
			names = append(names, r.Name)
		}
		if len(refs) < perPage {
			return names, nil
		}
	}
}

// listRefsViaTool shells out to the `gh` CLI, which authenticates with the
// user's stored credentials and is not subject to the anonymous rate limit.
func (c *Client) listRefsViaTool(ctx context.Context, path string) ([]refResponse, error) {
	if c.GHTool == "" {
		return nil, fmt.Errorf("%w: GitHub API request failed and no CLI fallback configured", integrations.ErrNetwork)
	}

	out, err := exec.CommandContext(ctx, c.GHTool, "api", path).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s api %s: %v", integrations.ErrNetwork, c.GHTool, path, err)
	}

	var refs []refResponse
	if err := json.Unmarshal(out, &refs); err != nil {
		return nil, fmt.Errorf("decode %s api output: %w", c.GHTool, err)
	}
	return refs, nil
}

type refResponse struct {
	Name string `json:"name"`
}

// FilterByPrefix returns the elements of names carrying the given prefix,
// with the prefix stripped.
func FilterByPrefix(names []string, prefix string) []string {
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, strings.TrimPrefix(n, prefix))
		}
	}
	return out
}
