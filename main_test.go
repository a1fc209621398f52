package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/license-scout/netfetch/internal/cache"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("NETFETCH_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应使用环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml", "https://example.com/LICENSE", "vendor/LICENSE"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
	if len(opts.locators) != 2 || opts.locators[1] != "vendor/LICENSE" {
		t.Fatalf("位置参数解析错误: %v", opts.locators)
	}
}

func TestParseCLIFlagsWithoutConfig(t *testing.T) {
	t.Setenv("NETFETCH_CONFIG", "")
	opts, err := parseCLIFlags([]string{"-serve"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "" || !opts.serve {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestParseCLIFlagsRejectsUnknownFlag(t *testing.T) {
	if _, err := parseCLIFlags([]string{"--nope"}); err == nil {
		t.Fatalf("未知参数应报错")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d", code)
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "invalid.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
}

func TestRunVersionOutput(t *testing.T) {
	out, _ := useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(out.String(), "netfetch") {
		t.Fatalf("version 输出应包含 netfetch 标识")
	}
}

func TestRunRequiresLocators(t *testing.T) {
	useBufferWriters(t)
	configPath := writeConfigFile(t, fmt.Sprintf(`CacheRoot = %q`, t.TempDir()))
	if code := run(cliOptions{configPath: configPath}); code != 2 {
		t.Fatalf("缺少参数应返回 2，得到 %d", code)
	}
}

func TestRunResolvesLocators(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ISC License"))
	}))
	defer upstream.Close()

	cacheRoot := t.TempDir()
	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "debug"
CacheRoot = %q
ReadTimeout = "5s"
`, cacheRoot))
	remote := upstream.URL + "/pkg/LICENSE"

	for i := 0; i < 2; i++ {
		out, _ := useBufferWriters(t)
		code := run(cliOptions{configPath: configPath, locators: []string{remote, "vendor/LICENSE"}})
		if code != 0 {
			t.Fatalf("期望退出码 0，得到 %d", code)
		}

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("每个参数应输出一行: %q", out.String())
		}
		want := filepath.Join(cacheRoot, cache.Key(remote), "LICENSE")
		if lines[0] != want {
			t.Fatalf("缓存路径错误:\n got  %s\n want %s", lines[0], want)
		}
		if lines[1] != "vendor/LICENSE" {
			t.Fatalf("本地路径应原样输出，得到 %s", lines[1])
		}
		data, err := os.ReadFile(lines[0])
		if err != nil || string(data) != "ISC License" {
			t.Fatalf("缓存内容错误: %q %v", string(data), err)
		}
	}

	if hits.Load() != 1 {
		t.Fatalf("重复执行应只下载一次，得到 %d", hits.Load())
	}
}

func TestRunReportsNetworkFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	configPath := writeConfigFile(t, fmt.Sprintf(`
CacheRoot = %q
MaxRetries = 1
`, t.TempDir()))

	_, errOut := useBufferWriters(t)
	code := run(cliOptions{configPath: configPath, locators: []string{upstream.URL + "/LICENSE"}})
	if code != 1 {
		t.Fatalf("下载失败应返回 1，得到 %d", code)
	}
	if !strings.Contains(errOut.String(), "network error fetching") {
		t.Fatalf("stderr 应包含网络错误: %s", errOut.String())
	}
}

func TestRunLoggingFallbackToStdout(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("file"), 0o644); err != nil {
		t.Fatalf("创建占位文件失败: %v", err)
	}

	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "info"
LogFilePath = %q
CacheRoot = %q
`, filepath.Join(blocked, "sub", "netfetch.log"), filepath.Join(dir, "cache")))

	useBufferWriters(t)
	if code := run(cliOptions{configPath: configPath, checkOnly: true}); code != 0 {
		t.Fatalf("日志 fallback 不应导致失败，得到 %d", code)
	}
}
