package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/license-scout/netfetch/internal/cache"
	"github.com/license-scout/netfetch/internal/locator"
	"github.com/license-scout/netfetch/internal/logging"
)

const (
	// DefaultMaxRetries is the number of attempts allowed after the first one.
	DefaultMaxRetries = 3
	// DefaultReadTimeout bounds each attempt.
	DefaultReadTimeout = 300 * time.Second
)

// Options wires a Fetcher to its collaborators.
type Options struct {
	// Store defaults to a truncate-mode store rooted at cache.DefaultRoot().
	Store cache.Store
	// Opener defaults to an HTTPOpener over http.DefaultClient.
	Opener Opener
	// MaxRetries is taken as-is; use DefaultOptions for the standard budget.
	MaxRetries int
	// ReadTimeout defaults to DefaultReadTimeout when zero.
	ReadTimeout time.Duration
	// RetryDelay is slept between attempts. Zero retries immediately.
	RetryDelay time.Duration
	Logger     *logrus.Logger
}

// DefaultOptions returns Options with the standard retry budget and timeout.
func DefaultOptions() Options {
	return Options{
		MaxRetries:  DefaultMaxRetries,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Fetcher caches a single locator.
type Fetcher struct {
	locator string
	store   cache.Store
	opener  Opener
	opts    Options
	logger  *logrus.Logger
}

// New binds locator to the collaborators in opts, filling in defaults.
func New(raw string, opts Options) (*Fetcher, error) {
	store := opts.Store
	if store == nil {
		var err error
		store, err = cache.NewStore(cache.DefaultRoot(), cache.StoreOptions{})
		if err != nil {
			return nil, fmt.Errorf("init cache store: %w", err)
		}
	}
	opener := opts.Opener
	if opener == nil {
		opener = NewHTTPOpener(nil, "")
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Fetcher{
		locator: raw,
		store:   store,
		opener:  opener,
		opts:    opts,
		logger:  logger,
	}, nil
}

// Locator returns the locator this Fetcher was built for.
func (f *Fetcher) Locator() string {
	return f.locator
}

// CachePath is <root>/<key>/<basename>. It never touches the filesystem.
func (f *Fetcher) CachePath() string {
	return f.store.Path(f.locator)
}

// CacheDir returns the root shared by every Fetcher on the same store.
func (f *Fetcher) CacheDir() string {
	return f.store.Root()
}

// Cached reports whether an entry exists at CachePath. Existence alone counts
// as a hit; the content is not inspected.
func (f *Fetcher) Cached() bool {
	return f.store.Exists(f.locator)
}

// Fetch downloads the locator unless it is already cached.
func (f *Fetcher) Fetch(ctx context.Context) error {
	if f.Cached() {
		f.logger.WithFields(f.fields(true)).Debug("cache_hit")
		return nil
	}
	return f.download(ctx)
}

func (f *Fetcher) fields(cacheHit bool) logrus.Fields {
	return logging.FetchFields(f.locator, cache.Key(f.locator), cacheHit)
}

// Cache fetches raw if needed and returns its local cache path.
func Cache(ctx context.Context, raw string, opts Options) (string, error) {
	f, err := New(raw, opts)
	if err != nil {
		return "", err
	}
	if err := f.Fetch(ctx); err != nil {
		return "", err
	}
	return f.CachePath(), nil
}

// IsRemote reports whether raw has a non-empty URL scheme.
func IsRemote(raw string) bool {
	return locator.IsRemote(raw)
}

// Resolve maps raw to a readable local path: local paths are returned as
// given, remote locators are cached first.
func Resolve(ctx context.Context, raw string, opts Options) (string, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return "", err
	}
	switch loc.Kind {
	case locator.KindRemote:
		return Cache(ctx, loc.Raw, opts)
	default:
		return loc.Raw, nil
	}
}
