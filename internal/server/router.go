package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/license-scout/netfetch/internal/cache"
	"github.com/license-scout/netfetch/internal/fetcher"
	"github.com/license-scout/netfetch/internal/locator"
	"github.com/license-scout/netfetch/internal/logging"
	"github.com/license-scout/netfetch/internal/version"
)

// AppOptions controls how the fetch daemon behaves.
type AppOptions struct {
	Logger     *logrus.Logger
	Fetch      fetcher.Options
	ListenPort int
}

const contextKeyRequestID = "_netfetch_request_id"

type fetchRequest struct {
	Locator string `json:"locator"`
}

type fetchResponse struct {
	Locator  string `json:"locator"`
	Path     string `json:"path"`
	Remote   bool   `json:"remote"`
	CacheHit bool   `json:"cache_hit"`
}

// NewApp builds the Fiber application serving /-/fetch, /-/content,
// /-/remote and /-/healthz. Requests for the same cache key share one download.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Fetch.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})
	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	h := &fetchHandler{opts: opts}
	app.Post("/-/fetch", h.fetch)
	app.Get("/-/content", h.content)
	app.Get("/-/remote", h.remote)
	app.Get("/-/healthz", h.health)

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID 并写回 X-Request-ID。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

type fetchHandler struct {
	opts     AppOptions
	inflight singleflight.Group
}

func (h *fetchHandler) fetch(c fiber.Ctx) error {
	var req fetchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	// 原样使用 locator：缓存 key 对字节敏感，不做任何规范化。
	raw := req.Locator
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "locator_required"})
	}

	loc, err := locator.Parse(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_locator"})
	}
	if !loc.Remote() {
		return c.JSON(fetchResponse{Locator: raw, Path: raw})
	}

	f, hit, err := h.ensure(c, raw)
	if err != nil {
		return h.fail(c, raw, err)
	}

	return c.JSON(fetchResponse{
		Locator:  raw,
		Path:     f.CachePath(),
		Remote:   true,
		CacheHit: hit,
	})
}

// content streams the cached body of a remote locator, fetching it first on a miss.
func (h *fetchHandler) content(c fiber.Ctx) error {
	raw := c.Query("locator")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "locator_required"})
	}
	loc, err := locator.Parse(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_locator"})
	}
	if !loc.Remote() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "not_remote"})
	}

	if _, _, err := h.ensure(c, raw); err != nil {
		return h.fail(c, raw, err)
	}

	result, err := h.opts.Fetch.Store.Get(c.Context(), raw)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_cached", "locator": raw})
		}
		return h.fail(c, raw, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Set("X-Cache-Key", result.Entry.Key)
	// fasthttp 在响应写完后关闭实现了 io.Closer 的 Reader。
	return c.SendStream(result.Reader, int(result.Entry.SizeBytes))
}

// ensure 保证 raw 已落盘，返回是否命中缓存。
func (h *fetchHandler) ensure(c fiber.Ctx, raw string) (*fetcher.Fetcher, bool, error) {
	f, err := fetcher.New(raw, h.opts.Fetch)
	if err != nil {
		return nil, false, err
	}

	hit := f.Cached()
	if !hit {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		// 同一 key 的并发请求只触发一次下载；调用方断开不影响进行中的下载。
		_, err, _ = h.inflight.Do(cache.Key(raw), func() (interface{}, error) {
			return nil, f.Fetch(context.WithoutCancel(ctx))
		})
		if err != nil {
			return nil, false, err
		}
	}

	fields := logging.FetchFields(raw, cache.Key(raw), hit)
	fields["request_id"] = RequestID(c)
	h.opts.Logger.WithFields(fields).Info("fetch_served")
	return f, hit, nil
}

func (h *fetchHandler) fail(c fiber.Ctx, raw string, err error) error {
	fields := logging.FetchFields(raw, cache.Key(raw), false)
	fields["request_id"] = RequestID(c)
	h.opts.Logger.WithFields(fields).WithError(err).Error("fetch_failed")

	var netErr *fetcher.NetworkError
	if errors.As(err, &netErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    "network_error",
			"locator":  netErr.Locator,
			"attempts": netErr.Attempts,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "fetch_failed",
		"locator": raw,
	})
}

func (h *fetchHandler) remote(c fiber.Ctx) error {
	raw := c.Query("locator")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "locator_required"})
	}

	payload := fiber.Map{"locator": raw, "remote": false}
	// 无法解析的 locator 与 IsRemote 一致，按非远端处理。
	if loc, err := locator.Parse(raw); err == nil && loc.Remote() {
		payload["remote"] = true
		payload["scheme"] = loc.URL.Scheme
		payload["host"] = loc.URL.Host
	}
	return c.JSON(payload)
}

func (h *fetchHandler) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"cache_root": h.opts.Fetch.Store.Root(),
		"version":    version.Full(),
	})
}
