package cache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultDirName 是所有 Fetcher 共享的缓存根目录名，位于系统临时目录下。
const DefaultDirName = "license_scout_cache"

// DefaultRoot 返回默认缓存根目录 <TMPDIR>/license_scout_cache。
func DefaultRoot() string {
	return filepath.Join(os.TempDir(), DefaultDirName)
}

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<Root>/<Key(locator)>/<basename(locator)>
//
// 条目一旦存在即视为完整有效，不做内容校验。
type Store interface {
	// Root 返回缓存根目录的绝对路径。
	Root() string

	// Path 计算 locator 对应的缓存文件路径，纯计算，不访问文件系统。
	Path(locator string) string

	// Exists 仅凭路径是否存在判断命中。
	Exists(locator string) bool

	// Get 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, locator string) (*ReadResult, error)

	// Put 将远端正文写入缓存，写入方式由 StoreOptions.Mode 决定。
	Put(ctx context.Context, locator string, body io.Reader) (*Entry, error)
}

// StoreOptions 控制磁盘缓存的写入行为。
type StoreOptions struct {
	Mode WriteMode
}

// Entry 描述一个已落盘的缓存条目。
type Entry struct {
	Locator   string    `json:"locator"`
	Key       string    `json:"key"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")
