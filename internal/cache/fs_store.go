package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// NewStore 以 basePath 为根目录构建磁盘缓存。根目录在首次写入时才创建。
func NewStore(basePath string, opts StoreOptions) (Store, error) {
	if basePath == "" {
		return nil, errors.New("cache root required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve cache root: %w", err)
	}

	return &fileStore{
		basePath: abs,
		mode:     opts.Mode,
		locks:    make(map[string]*entryLock),
	}, nil
}

// fileStore 通过 entryLock 避免同一进程内对同一 Key 的并发写入交错。
type fileStore struct {
	basePath string
	mode     WriteMode

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Root() string {
	return s.basePath
}

func (s *fileStore) Path(locator string) string {
	return filepath.Join(s.basePath, Key(locator), entryName(locator))
}

func (s *fileStore) Exists(locator string) bool {
	_, err := os.Stat(s.Path(locator))
	return err == nil
}

func (s *fileStore) Get(ctx context.Context, locator string) (*ReadResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	filePath := s.Path(locator)
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &ReadResult{
		Entry: Entry{
			Locator:   locator,
			Key:       Key(locator),
			FilePath:  filePath,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		},
		Reader: f,
	}, nil
}

func (s *fileStore) Put(ctx context.Context, locator string, body io.Reader) (*Entry, error) {
	key := Key(locator)
	unlock := s.lockEntry(key)
	defer unlock()

	filePath := s.Path(locator)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	written, err := writeFile(ctx, s.mode, filePath, body)
	if err != nil {
		return nil, fmt.Errorf("write cache entry: %w", err)
	}

	entry := Entry{
		Locator:   locator,
		Key:       key,
		FilePath:  filePath,
		SizeBytes: written,
	}
	if info, err := os.Stat(filePath); err == nil {
		entry.ModTime = info.ModTime()
	}
	return &entry, nil
}

func (s *fileStore) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// entryName 取 locator 的 basename 作为文件名；无法构成合法文件名时退回 "root"。
func entryName(locator string) string {
	name := path.Base(locator)
	switch name {
	case "", ".", "..", "/":
		return "root"
	}
	return name
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
