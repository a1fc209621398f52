package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key 对 locator 的原始字节做 SHA-256，返回 64 位小写十六进制字符串。
// 不做任何 URL 规范化：文本不同即视为不同条目。
func Key(locator string) string {
	sum := sha256.Sum256([]byte(locator))
	return hex.EncodeToString(sum[:])
}
