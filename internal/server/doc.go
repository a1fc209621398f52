// Package server builds the runtime pieces shared by the CLI and the optional
// fetch daemon: the upstream http.Client, the cache store and fetcher options
// derived from config, and a Fiber application that exposes fetch-as-a-service
// on localhost for callers that cannot link the Go package. The daemon
// collapses concurrent fetches of the same locator into one download.
package server
