// Package integrations provides HTTP clients for the remote collaborators
// psvm depends on.
//
// The resolver only consumes two capabilities from this package: "fetch raw
// text for a locator" and "list available version identifiers". Subpackages
// implement them against concrete services:
//
//   - github: raw files from raw.githubusercontent.com and release
//     branch/tag listings from the GitHub API, with a `gh` CLI fallback
//     when the direct API request does not succeed
//   - crates: the set of crates owned by the Parity publisher team on
//     crates.io, used by the release-plan inclusion rule
//
// [Client] carries the shared plumbing: default headers, response caching
// via pkg/httputil, retry with backoff, and status-code mapping onto
// [ErrNotFound] and [ErrNetwork].
package integrations
