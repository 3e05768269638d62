// Package httputil provides HTTP utilities shared by the remote source
// clients.
//
// # Overview
//
//   - [Cache]: file-based response caching (version lists, crate-owner sets)
//   - [Retry]: automatic retry with exponential backoff for transient failures
//
// # Caching
//
// [Cache] stores JSON-marshalable values in the filesystem (~/.cache/psvm/)
// with a configurable TTL. The cached version list keeps `psvm --list
// --cached` usable offline and avoids hammering the GitHub API.
//
// Cache keys should be namespaced by source to avoid collisions, e.g.
// "releases:polkadot-sdk".
//
// # Retry
//
// [Retry] re-runs an operation when it fails with a [RetryableError]
// (network errors, 5xx responses). Non-retryable failures such as a missing
// Plan.toml return immediately so the resolver can fall back to Cargo.lock
// without delay.
package httputil
