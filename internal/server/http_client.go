package server

import (
	"net"
	"net/http"
	"time"

	"github.com/license-scout/netfetch/internal/config"
	"github.com/license-scout/netfetch/internal/fetcher"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewUpstreamClient 返回共享 http.Client。ReadTimeout 只约束等待响应头的时间；
// 正文读取的空闲超时由 fetcher.HTTPOpener 负责，不设置整体 Client.Timeout。
func NewUpstreamClient(cfg *config.Config) *http.Client {
	timeout := fetcher.DefaultReadTimeout
	if cfg != nil && cfg.Global.ReadTimeout.DurationValue() > 0 {
		timeout = cfg.Global.ReadTimeout.DurationValue()
	}

	transport := defaultTransport.Clone()
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{
		Transport: transport,
	}
}
