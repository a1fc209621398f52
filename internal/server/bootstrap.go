package server

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/license-scout/netfetch/internal/cache"
	"github.com/license-scout/netfetch/internal/config"
	"github.com/license-scout/netfetch/internal/fetcher"
)

// NewFetchOptions 按配置组装缓存存储、上游 client 与重试参数，CLI 与 daemon 共用。
func NewFetchOptions(cfg *config.Config, logger *logrus.Logger) (fetcher.Options, error) {
	if cfg == nil {
		return fetcher.Options{}, errors.New("config is nil")
	}

	mode := cache.WriteTruncate
	if cfg.Global.AtomicWrites {
		mode = cache.WriteAtomic
	}
	store, err := cache.NewStore(cfg.Global.CacheRoot, cache.StoreOptions{Mode: mode})
	if err != nil {
		return fetcher.Options{}, fmt.Errorf("init cache store: %w", err)
	}

	return fetcher.Options{
		Store:       store,
		Opener:      fetcher.NewHTTPOpener(NewUpstreamClient(cfg), cfg.Global.UserAgent),
		MaxRetries:  cfg.Global.MaxRetries,
		ReadTimeout: cfg.Global.ReadTimeout.DurationValue(),
		RetryDelay:  cfg.Global.RetryDelay.DurationValue(),
		Logger:      logger,
	}, nil
}
