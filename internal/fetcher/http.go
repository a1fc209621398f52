package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultUserAgent is sent when NewHTTPOpener receives an empty user agent.
const DefaultUserAgent = "netfetch"

// HTTPOpener implements Opener on top of net/http. Redirects, schemes and
// auth are whatever the wrapped client supports.
type HTTPOpener struct {
	client    *http.Client
	userAgent string
}

// NewHTTPOpener wraps client; a nil client falls back to http.DefaultClient.
func NewHTTPOpener(client *http.Client, userAgent string) *HTTPOpener {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPOpener{client: client, userAgent: userAgent}
}

// Open issues a GET for rawURL. ReadTimeout bounds every wait for data (the
// response headers, then each body read) rather than the whole transfer, so a
// slow but steady download is never cut off.
func (o *HTTPOpener) Open(ctx context.Context, rawURL string, opts OpenOptions) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	idle := newIdleTimer(rawURL, opts.ReadTimeout, cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		idle.stop()
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", o.userAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		idle.stop()
		cancel()
		return nil, idle.wrap(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		idle.stop()
		cancel()
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	idle.reset()
	return &idleBody{ReadCloser: resp.Body, idle: idle, cancel: cancel}, nil
}

// idleTimer cancels the attempt once no progress has been made for limit.
// A nil idleTimer never fires.
type idleTimer struct {
	url     string
	limit   time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleTimer(url string, limit time.Duration, cancel context.CancelFunc) *idleTimer {
	if limit <= 0 {
		return nil
	}
	t := &idleTimer{url: url, limit: limit}
	t.timer = time.AfterFunc(limit, func() {
		t.expired.Store(true)
		cancel()
	})
	return t
}

func (t *idleTimer) reset() {
	if t != nil {
		t.timer.Reset(t.limit)
	}
}

func (t *idleTimer) stop() {
	if t != nil {
		t.timer.Stop()
	}
}

// wrap turns the cancellation caused by an expired timer into a timeout.
func (t *idleTimer) wrap(err error) error {
	if err == nil || t == nil || !t.expired.Load() {
		return err
	}
	return &ReadTimeoutError{URL: t.url, Limit: t.limit, Err: err}
}

type idleBody struct {
	io.ReadCloser
	idle   *idleTimer
	cancel context.CancelFunc
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.idle.reset()
	}
	if err != nil && err != io.EOF {
		err = b.idle.wrap(err)
	}
	return n, err
}

func (b *idleBody) Close() error {
	err := b.ReadCloser.Close()
	b.idle.stop()
	b.cancel()
	return err
}
