package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/license-scout/netfetch/internal/cache"
)

// download runs the bounded retry loop. Each attempt re-issues the request
// from scratch and overwrites whatever a previous attempt left behind.
func (f *Fetcher) download(ctx context.Context) error {
	maxAttempts := f.opts.MaxRetries + 1
	fields := f.fields(false)
	fields["fetch_id"] = uuid.NewString()
	fields["max_attempts"] = maxAttempts

	started := time.Now()
	for attempt := 1; ; attempt++ {
		entry, err := f.attempt(ctx)
		if err == nil {
			fields["attempt"] = attempt
			fields["size_bytes"] = entry.SizeBytes
			fields["elapsed_ms"] = time.Since(started).Milliseconds()
			f.logger.WithFields(fields).Info("fetch_complete")
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !IsTransient(err) {
			return err
		}
		if attempt >= maxAttempts {
			return &NetworkError{Locator: f.locator, Attempts: attempt, Err: err}
		}

		fields["attempt"] = attempt
		f.logger.WithFields(fields).WithError(err).Warn("fetch_retry")
		if err := sleepContext(ctx, f.opts.RetryDelay); err != nil {
			return err
		}
	}
}

func (f *Fetcher) attempt(ctx context.Context) (*cache.Entry, error) {
	body, err := f.opener.Open(ctx, f.locator, OpenOptions{ReadTimeout: f.opts.ReadTimeout})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entry, err := f.store.Put(ctx, f.locator, body)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", f.locator, err)
	}
	return entry, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
