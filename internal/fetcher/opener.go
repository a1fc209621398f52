package fetcher

import (
	"context"
	"io"
	"time"
)

// OpenOptions is passed to every Open call.
type OpenOptions struct {
	// ReadTimeout bounds a single attempt, body streaming included.
	ReadTimeout time.Duration
}

// Opener opens a remote resource for reading. Implementations return errors
// that IsTransient can classify; the caller closes the returned body.
type Opener interface {
	Open(ctx context.Context, rawURL string, opts OpenOptions) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, rawURL string, opts OpenOptions) (io.ReadCloser, error)

// Open makes OpenerFunc satisfy Opener.
func (f OpenerFunc) Open(ctx context.Context, rawURL string, opts OpenOptions) (io.ReadCloser, error) {
	return f(ctx, rawURL, opts)
}
