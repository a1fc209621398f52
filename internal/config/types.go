package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级行为，所有 Fetcher 共享同一份参数。
type GlobalConfig struct {
	LogLevel      string   `mapstructure:"LogLevel"`
	LogFilePath   string   `mapstructure:"LogFilePath"`
	LogMaxSize    int      `mapstructure:"LogMaxSize"`
	LogMaxBackups int      `mapstructure:"LogMaxBackups"`
	LogCompress   bool     `mapstructure:"LogCompress"`
	CacheRoot     string   `mapstructure:"CacheRoot"`
	AtomicWrites  bool     `mapstructure:"AtomicWrites"`
	MaxRetries    int      `mapstructure:"MaxRetries"`
	ReadTimeout   Duration `mapstructure:"ReadTimeout"`
	RetryDelay    Duration `mapstructure:"RetryDelay"`
	UserAgent     string   `mapstructure:"UserAgent"`
	ListenPort    int      `mapstructure:"ListenPort"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
}

// WriteModeName 输出 `atomic` 或 `truncate`，供日志字段使用。
func (g GlobalConfig) WriteModeName() string {
	if g.AtomicWrites {
		return "atomic"
	}
	return "truncate"
}
