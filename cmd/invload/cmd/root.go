// Package cmd provides CLI commands for the inventory loader.
package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inventory-loader/internal/config"
)

// Version information, injected at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Global flags
var (
	cfgFile  string // Config file path
	logLevel string // Log level
	envFile  string // .env file path
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "invload",
	Short: "服务器资产导入工具 - 将资产 CSV 规范化后写入数据库",
	Long: `服务器资产导入工具读取电子表格导出的服务器资产 CSV，
按分区标题（***名称***）识别链分区、列标签、服务器记录和汇总行，
并将规范化后的数据整体替换写入 SQLite、PostgreSQL 或生成 psql 脚本。

数据流: CSV（本地 / HTTP / S3）→ 解析 → SQLite | PostgreSQL | SQL 脚本 → Excel/HTML 报告

主要功能:
  - 校验列宽（至少 35 列），不合格时不触碰目标库
  - 记录源文件 SHA-256、导入时间和记录数
  - 每次导入整体替换，重复导入结果一致
  - 按 IDC 汇总服务器部署状态
  - 输出 Prometheus textfile 指标`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（为空时使用默认值和环境变量）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "日志级别 (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "环境变量文件路径（不存在时忽略）")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// GetConfigFile returns the config file path from command line flag.
func GetConfigFile() string {
	return cfgFile
}

// GetLogLevel returns the log level from command line flag.
func GetLogLevel() string {
	return logLevel
}

// GetVersionInfo returns formatted version information.
func GetVersionInfo() string {
	return Version + "\n" +
		"Build Time: " + BuildTime + "\n" +
		"Git Commit: " + GitCommit + "\n" +
		"Go Version: " + runtime.Version() + "\n" +
		"OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH
}

// loadConfig loads the .env file and the configuration, then builds the
// logger. Errors are printed and terminate the process.
func loadConfig(console io.Writer) (*config.Config, zerolog.Logger) {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 加载环境变量文件失败: %v\n", err)
		os.Exit(1)
	}

	configPath := GetConfigFile()
	if configPath != "" {
		fmt.Fprintf(console, "📋 加载配置文件: %s\n", configPath)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		tmpLogger := setupLogger("error", "console")
		tmpLogger.Error().Err(err).Str("path", configPath).Msg("failed to load config")
		fmt.Fprintf(os.Stderr, "❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// Command line --log-level overrides config file setting
	level := cfg.Logging.Level
	if GetLogLevel() != "info" {
		level = GetLogLevel()
	}
	logger := setupLogger(level, cfg.Logging.Format)
	logger.Debug().
		Str("config_path", configPath).
		Str("log_level", level).
		Str("log_format", cfg.Logging.Format).
		Msg("configuration loaded successfully")

	return cfg, logger
}

// setupLogger creates a zerolog logger writing to stderr.
func setupLogger(level string, format string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	var output io.Writer
	if format == "json" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// loadTimezone resolves the report timezone, falling back to UTC.
func loadTimezone(name string, logger zerolog.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", name).Msg("invalid timezone, using UTC")
		return time.UTC
	}
	return tz
}
