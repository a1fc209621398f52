package cache

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteMode 决定正文落盘方式。
type WriteMode int

const (
	// WriteTruncate 直接截断并写入目标文件。写入失败时删除该文件；
	// 只有进程在写入中途崩溃才会留下不完整文件，且之后会被当作命中。
	WriteTruncate WriteMode = iota
	// WriteAtomic 先写同目录临时文件，成功后 rename 到目标路径，失败时清理临时文件。
	WriteAtomic
)

func (m WriteMode) String() string {
	if m == WriteAtomic {
		return "atomic"
	}
	return "truncate"
}

// writeFile 按 mode 将 body 写入 filePath，返回写入字节数。
func writeFile(ctx context.Context, mode WriteMode, filePath string, body io.Reader) (int64, error) {
	if mode == WriteAtomic {
		return writeAtomic(ctx, filePath, body)
	}
	return writeTruncate(ctx, filePath, body)
}

func writeTruncate(ctx context.Context, filePath string, body io.Reader) (int64, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return 0, err
	}

	written, err := copyWithContext(ctx, file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// 失败的写入不能留下会被 Exists 视为命中的残缺文件。
		os.Remove(filePath)
		return written, err
	}
	return written, nil
}

func writeAtomic(ctx context.Context, filePath string, body io.Reader) (int64, error) {
	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return 0, err
	}
	tempName := tempFile.Name()

	written, err := copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return written, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return written, fmt.Errorf("commit cache entry: %w", err)
	}
	return written, nil
}
