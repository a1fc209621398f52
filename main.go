package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/license-scout/netfetch/internal/config"
	"github.com/license-scout/netfetch/internal/fetcher"
	"github.com/license-scout/netfetch/internal/logging"
	"github.com/license-scout/netfetch/internal/server"
	"github.com/license-scout/netfetch/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	serve       bool
	locators    []string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["cache_root"] = cfg.Global.CacheRoot
		fields["write_mode"] = cfg.Global.WriteModeName()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	fetchOpts, err := server.NewFetchOptions(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存目录失败: %v\n", err)
		return 1
	}

	if opts.serve {
		if err := startHTTPServer(cfg, fetchOpts, logger); err != nil {
			fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
			return 1
		}
		return 0
	}

	if len(opts.locators) == 0 {
		fmt.Fprintln(stdErr, "至少需要一个 URL 或路径参数")
		return 2
	}
	// stdout 只输出解析后的路径，未配置日志文件时日志改写到 stderr。
	if cfg.Global.LogFilePath == "" {
		logger.SetOutput(stdErr)
	}
	return resolveAll(context.Background(), opts.locators, fetchOpts, logger)
}

// resolveAll 逐个解析 locator 并输出本地路径；任一失败即返回 1，但会继续处理剩余参数。
func resolveAll(ctx context.Context, locators []string, fetchOpts fetcher.Options, logger *logrus.Logger) int {
	code := 0
	for _, raw := range locators {
		path, err := fetcher.Resolve(ctx, raw, fetchOpts)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"action":  "resolve",
				"locator": raw,
			}).WithError(err).Error("resolve_failed")
			fmt.Fprintf(stdErr, "%s: %v\n", raw, err)
			code = 1
			continue
		}
		fmt.Fprintln(stdOut, path)
	}
	return code
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("netfetch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		serve      bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（可被 NETFETCH_CONFIG 提供，缺省时仅使用默认值）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.BoolVar(&serve, "serve", false, "以 HTTP daemon 方式提供 fetch 服务")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("NETFETCH_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		serve:       serve,
		locators:    fs.Args(),
	}, nil
}

func startHTTPServer(cfg *config.Config, fetchOpts fetcher.Options, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Fetch:      fetchOpts,
		ListenPort: port,
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"action":     "listen",
		"port":       port,
		"cache_root": cfg.Global.CacheRoot,
		"version":    version.Full(),
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf("127.0.0.1:%d", port))
}
