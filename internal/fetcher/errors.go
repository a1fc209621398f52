package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// NetworkError is returned once the retry budget is exhausted on a transient
// failure. Err holds the cause of the last attempt.
type NetworkError struct {
	Locator  string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s after %d attempts: %v", e.Locator, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response surfaced by the HTTP opener.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

// ReadTimeoutError reports that no data arrived from the remote end for Limit.
// It satisfies net.Error with Timeout() == true.
type ReadTimeoutError struct {
	URL   string
	Limit time.Duration
	Err   error
}

func (e *ReadTimeoutError) Error() string {
	return fmt.Sprintf("GET %s: no data received for %s: %v", e.URL, e.Limit, e.Err)
}

func (e *ReadTimeoutError) Unwrap() error {
	return e.Err
}

func (e *ReadTimeoutError) Timeout() bool   { return true }
func (e *ReadTimeoutError) Temporary() bool { return true }

// IsTransient reports whether err belongs to the retryable class: name
// resolution failures, refused/reset connections, unreachable networks,
// timeouts and HTTP-layer errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
