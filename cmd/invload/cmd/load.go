package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inventory-loader/internal/config"
	"inventory-loader/internal/metrics"
	"inventory-loader/internal/parser"
	"inventory-loader/internal/report"
	"inventory-loader/internal/service"
	"inventory-loader/internal/sink"
	"inventory-loader/internal/source"
)

// Command flags
var (
	csvLocation string   // Source CSV location
	dbPath      string   // SQLite database path
	sinkMode    string   // Sink mode (sqlite, postgres, script)
	postgresDSN string   // PostgreSQL DSN
	scriptOut   string   // Script output path ("-" for stdout)
	outputDir   string   // Output directory for reports
	formats     []string // Report formats (excel, html)
	metricsFile string   // Prometheus textfile path
)

// loadCmd represents the load command.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "导入服务器资产 CSV",
	Long: `读取服务器资产 CSV，校验列宽并解析为分区、列标签、服务器记录和汇总行，
然后整体替换写入目标：
  sqlite   - 删除并重建 SQLite 数据库文件
  postgres - 在单个事务中 TRUNCATE 六张表并重新写入，重置序列
  script   - 生成等价的 psql 脚本（BEGIN … COMMIT）

示例:
  # 导入到默认 SQLite 文件
  invload load --csv lambda256_server_info.csv

  # 导入到 PostgreSQL
  invload load --csv data.csv --mode postgres --dsn postgres://user@host:5432/db

  # 从 S3 读取并生成 Excel/HTML 报告
  invload load --csv s3://inventory/servers.csv -f excel,html -o ./reports

  # 输出 Prometheus textfile 指标
  invload load --csv data.csv --metrics-file /var/lib/node_exporter/invload.prom`,
	Run: runLoadCommand,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&csvLocation, "csv", "", "CSV 位置（本地路径、http(s) URL 或 s3://bucket/key）")
	loadCmd.Flags().StringVar(&dbPath, "db", "", "SQLite 数据库文件路径")
	loadCmd.Flags().StringVar(&sinkMode, "mode", "", "写入模式 (sqlite, postgres, script)")
	loadCmd.Flags().StringVar(&postgresDSN, "dsn", "", "PostgreSQL 连接串")
	loadCmd.Flags().StringVar(&scriptOut, "script-out", "", "script 模式的输出文件（- 表示标准输出）")
	loadCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "报告格式 (excel,html)，可用逗号分隔多个")
	loadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "报告输出目录")
	loadCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Prometheus textfile 输出路径")
}

// runLoadCommand executes the load command.
func runLoadCommand(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(os.Stderr)
	applyLoadFlags(cfg)

	if err := config.ValidateSink(&cfg.Sink); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 写入配置无效: %v\n", err)
		os.Exit(1)
	}

	if err := executeLoad(cmd.Context(), cfg, logger); err != nil {
		os.Exit(1)
	}
}

// applyLoadFlags applies command line flags on top of the configuration.
// Command line flags take precedence over config file.
func applyLoadFlags(cfg *config.Config) {
	if csvLocation != "" {
		cfg.Source.Location = csvLocation
	}
	if sinkMode != "" {
		cfg.Sink.Mode = strings.ToLower(sinkMode)
	}
	if dbPath != "" {
		cfg.Sink.SQLite.Path = dbPath
	}
	if postgresDSN != "" {
		cfg.Sink.Postgres.DSN = postgresDSN
	}
	if scriptOut != "" {
		cfg.Sink.Script.Output = scriptOut
	}
	if metricsFile != "" {
		cfg.Metrics.Textfile = metricsFile
	}
}

// executeLoad runs one load with the given configuration, then writes the
// requested reports and the metrics textfile. Failures are printed.
func executeLoad(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scriptOutput, finishOutput := openScriptOutput(&cfg.Sink)
	defer func() { _ = finishOutput(false) }()

	// Keep stdout clean when the script itself goes to stdout.
	console := io.Writer(os.Stdout)
	if scriptOutput == os.Stdout {
		console = os.Stderr
	}

	printBanner(console)

	dst, err := sink.New(&cfg.Sink, scriptOutput, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 创建写入目标失败: %v\n", err)
		return err
	}

	fmt.Fprintf(console, "📥 数据源: %s\n", cfg.Source.Location)
	fmt.Fprintf(console, "💾 写入模式: %s%s\n", dst.Name(), describeSink(&cfg.Sink))

	recorder := metrics.NewRecorder()
	loader := service.NewLoader(
		source.New(&cfg.Source, &cfg.HTTP.Retry, logger),
		dst,
		logger,
		service.WithRecorder(recorder),
	)

	result, runErr := loader.Run(ctx, cfg.Source.Location)
	if runErr == nil {
		if err := finishOutput(true); err != nil {
			runErr = fmt.Errorf("failed to save script to %s: %w", cfg.Sink.Script.Output, err)
		}
	}
	writeMetrics(cfg.Metrics.Textfile, recorder, console, logger)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "❌ 导入失败: %s\n", describeError(runErr))
		return runErr
	}

	counts := result.Document.Counts()
	fmt.Fprintln(console, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(console, "   CSV 记录数: %d\n", result.Document.Batch.RowCount)
	fmt.Fprintf(console, "   分区数: %d\n", counts.Sections)
	fmt.Fprintf(console, "   服务器数: %d\n", counts.Servers)
	fmt.Fprintf(console, "   指标单元格数: %d\n", counts.Metrics)
	fmt.Fprintf(console, "   汇总行数: %d\n", counts.Totals)
	fmt.Fprintf(console, "   IDC 数: %d（健康 %d）\n", result.Status.Summary.IDCCount, result.Status.Summary.HealthyCount)
	fmt.Fprintf(console, "   耗时: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintln(console, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	reportFormats := resolveFormats(cfg)
	if len(reportFormats) > 0 {
		tz := loadTimezone(cfg.Report.Timezone, logger)
		registry := report.NewRegistry(tz, cfg.Report.HTMLTemplate)
		outputs, err := registry.WriteAll(ctx, result.Document, reportFormats,
			resolveOutputDir(cfg), generateFilename(cfg.Report.FilenameTemplate, tz))
		if err != nil {
			logger.Error().Err(err).Msg("failed to generate reports")
			fmt.Fprintf(os.Stderr, "❌ 报告生成失败: %v\n", err)
			return err
		}
		for _, out := range outputs {
			fmt.Fprintf(console, "   📄 %s 报告: %s\n", out.Format, out.Path)
		}
	}

	fmt.Fprintf(console, "✅ 导入完成 (run_id=%s)\n", result.RunID)
	return nil
}

// openScriptOutput returns the script destination in script mode, or nil.
// A file destination is staged next to the target and only replaces it
// when finish is called with ok set; finish is always safe to call.
func openScriptOutput(cfg *config.SinkConfig) (io.Writer, func(ok bool) error) {
	noop := func(bool) error { return nil }
	if cfg.Mode != config.SinkModeScript {
		return nil, noop
	}
	if cfg.Script.Output == "" || cfg.Script.Output == "-" {
		return os.Stdout, noop
	}
	out := &stagedFile{path: cfg.Script.Output}
	return out, func(ok bool) error {
		if ok {
			return out.commit()
		}
		out.discard()
		return nil
	}
}

// stagedFile writes to a temporary file created on the first Write and
// renamed over path on commit.
type stagedFile struct {
	path string
	tmp  *os.File
}

func (f *stagedFile) Write(p []byte) (int, error) {
	if f.tmp == nil {
		dir := filepath.Dir(f.path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, err
		}
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
		if err != nil {
			return 0, err
		}
		f.tmp = tmp
	}
	return f.tmp.Write(p)
}

func (f *stagedFile) commit() error {
	if f.tmp == nil {
		return nil
	}
	tmp := f.tmp
	f.tmp = nil
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (f *stagedFile) discard() {
	if f.tmp == nil {
		return
	}
	_ = f.tmp.Close()
	_ = os.Remove(f.tmp.Name())
	f.tmp = nil
}

func describeSink(cfg *config.SinkConfig) string {
	switch cfg.Mode {
	case config.SinkModeSQLite:
		return " (" + cfg.SQLite.Path + ")"
	case config.SinkModeScript:
		if cfg.Script.Output == "" || cfg.Script.Output == "-" {
			return " (stdout)"
		}
		return " (" + cfg.Script.Output + ")"
	default:
		return ""
	}
}

// describeError turns a load failure into a user-facing message.
func describeError(err error) string {
	var widthErr *parser.WidthError
	switch {
	case errors.As(err, &widthErr):
		return fmt.Sprintf("CSV 列数不足，至少需要 %d 列，实际最宽 %d 列", widthErr.Required, widthErr.Found)
	case errors.Is(err, source.ErrNotFound):
		return fmt.Sprintf("源文件不存在: %v", err)
	case errors.Is(err, sink.ErrUnreachable):
		return fmt.Sprintf("写入目标不可达: %v", err)
	default:
		return err.Error()
	}
}

func writeMetrics(path string, recorder *metrics.Recorder, console io.Writer, logger zerolog.Logger) {
	if path == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics textfile")
		fmt.Fprintf(os.Stderr, "⚠️  指标文件写入失败: %v\n", err)
		return
	}
	fmt.Fprintf(console, "📈 指标文件: %s\n", path)
}

// resolveFormats determines the report formats to use.
// Command line flags take precedence over config file.
func resolveFormats(cfg *config.Config) []string {
	if len(formats) > 0 {
		return formats
	}
	return cfg.Report.Formats
}

// resolveOutputDir determines the output directory to use.
// Command line flags take precedence over config file.
func resolveOutputDir(cfg *config.Config) string {
	if outputDir != "" {
		return outputDir
	}
	if cfg.Report.OutputDir != "" {
		return cfg.Report.OutputDir
	}
	return "./reports"
}

// generateFilename creates a filename from the template.
// Supports {{.Date}} placeholder for current date.
func generateFilename(template string, tz *time.Location) string {
	if template == "" {
		template = "server_inventory_{{.Date}}"
	}

	dateStr := time.Now().In(tz).Format("2006-01-02")

	filename := strings.ReplaceAll(template, "{{.Date}}", dateStr)
	filename = strings.ReplaceAll(filename, "{{ .Date }}", dateStr)

	return filename
}

// printBanner prints the application banner.
func printBanner(w io.Writer) {
	fmt.Fprintf(w, "📦 服务器资产导入工具 %s\n", Version)
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}
