package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"inventory-loader/internal/config"
)

var (
	scriptCSV           string
	scriptPath          string
	scriptIncludeSchema bool
)

// scriptCmd represents the script command.
var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "生成 PostgreSQL 导入脚本",
	Long: `解析服务器资产 CSV 并生成等价于 postgres 模式的 SQL 脚本，
可通过 psql -v ON_ERROR_STOP=1 -f <脚本> 执行。

示例:
  invload script --csv data.csv --out load.sql
  invload script --csv data.csv --include-schema | psql -v ON_ERROR_STOP=1 "$DSN"`,
	Run: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)

	scriptCmd.Flags().StringVar(&scriptCSV, "csv", "", "CSV 位置（本地路径、http(s) URL 或 s3://bucket/key）")
	scriptCmd.Flags().StringVar(&scriptPath, "out", "", "脚本输出文件（默认标准输出）")
	scriptCmd.Flags().BoolVar(&scriptIncludeSchema, "include-schema", false, "在脚本中包含建表语句")
}

// runScript executes the script command.
func runScript(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(os.Stderr)

	cfg.Sink.Mode = config.SinkModeScript
	if scriptCSV != "" {
		cfg.Source.Location = scriptCSV
	}
	if scriptPath != "" {
		cfg.Sink.Script.Output = scriptPath
	}
	if scriptIncludeSchema {
		cfg.Sink.Script.IncludeSchema = true
	}

	if err := executeLoad(cmd.Context(), cfg, logger); err != nil {
		os.Exit(1)
	}
}
