package config

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置进入 fetch 流程。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError(globalField("LogLevel"), "无法识别: "+g.LogLevel)
	}
	if strings.TrimSpace(g.CacheRoot) == "" {
		return newFieldError(globalField("CacheRoot"), "不能为空")
	}
	if g.MaxRetries < 0 {
		return newFieldError(globalField("MaxRetries"), "不能为负数")
	}
	if g.ReadTimeout.DurationValue() <= 0 {
		return newFieldError(globalField("ReadTimeout"), "必须大于 0")
	}
	if g.RetryDelay.DurationValue() < 0 {
		return newFieldError(globalField("RetryDelay"), "不能为负数")
	}
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError(globalField("ListenPort"), "必须在 1-65535")
	}
	if g.LogMaxSize < 0 || g.LogMaxBackups < 0 {
		return newFieldError(globalField("LogMaxSize/LogMaxBackups"), "不能为负数")
	}
	return nil
}
