// Package fetcher guarantees that a remote resource is present exactly once
// in the local cache. A Fetcher derives the cache path for its locator, skips
// all network I/O when an entry already exists there, and otherwise runs a
// bounded retry loop: transient network failures are retried up to
// Options.MaxRetries extra times, everything else is returned on first
// occurrence, and an exhausted budget surfaces as *NetworkError.
package fetcher
