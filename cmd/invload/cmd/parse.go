package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inventory-loader/internal/model"
	"inventory-loader/internal/service"
	"inventory-loader/internal/source"
)

var (
	parseCSV    string
	parseFormat string
	parseFull   bool
)

// parseCmd represents the parse command.
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "解析 CSV 并输出摘要（不写入数据库）",
	Long: `解析服务器资产 CSV，输出批次信息、分区摘要和 IDC 状态汇总，不写入任何目标。

示例:
  invload parse --csv data.csv
  invload parse --csv data.csv --format yaml --full`,
	Run: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseCSV, "csv", "", "CSV 位置（本地路径、http(s) URL 或 s3://bucket/key）")
	parseCmd.Flags().StringVar(&parseFormat, "format", "json", "输出格式 (json, yaml)")
	parseCmd.Flags().BoolVar(&parseFull, "full", false, "输出完整的规范化文档")
}

// SectionSummary is the per-section line of the parse output.
type SectionSummary struct {
	RowNumber int    `json:"row_number" yaml:"row_number"`
	Name      string `json:"section_name" yaml:"section_name"`
	Slug      string `json:"section_slug" yaml:"section_slug"`
	Labels    int    `json:"labels" yaml:"labels"`
	Servers   int    `json:"servers" yaml:"servers"`
	Totals    int    `json:"totals" yaml:"totals"`
}

// ParseOutput is what the parse command prints.
type ParseOutput struct {
	Batch    model.ImportBatch    `json:"batch" yaml:"batch"`
	Counts   model.DocumentCounts `json:"counts" yaml:"counts"`
	Sections []SectionSummary     `json:"sections" yaml:"sections"`
	Status   *model.ServerStatus  `json:"status" yaml:"status"`
	Document *model.Document      `json:"document,omitempty" yaml:"document,omitempty"`
}

// runParse executes the parse command.
func runParse(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig(os.Stderr)

	location := cfg.Source.Location
	if parseCSV != "" {
		location = parseCSV
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader := service.NewLoader(source.New(&cfg.Source, &cfg.HTTP.Retry, logger), nil, logger)
	doc, err := loader.Parse(ctx, location)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 解析失败: %s\n", describeError(err))
		os.Exit(1)
	}

	out := NewParseOutput(doc, time.Now(), parseFull)
	if err := encodeOutput(os.Stdout, out, parseFormat); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 输出失败: %v\n", err)
		os.Exit(1)
	}
}

// NewParseOutput summarizes a parsed document.
func NewParseOutput(doc *model.Document, generatedAt time.Time, full bool) *ParseOutput {
	out := &ParseOutput{
		Batch:    doc.Batch,
		Counts:   doc.Counts(),
		Sections: make([]SectionSummary, 0, len(doc.Sections)),
		Status:   model.NewServerStatus(doc, generatedAt),
	}
	for _, s := range doc.Sections {
		out.Sections = append(out.Sections, SectionSummary{
			RowNumber: s.RowNumber,
			Name:      s.Name,
			Slug:      s.Slug,
			Labels:    len(s.Labels),
			Servers:   len(s.Servers),
			Totals:    len(s.Totals),
		})
	}
	if full {
		out.Document = doc
	}
	return out
}

// encodeOutput writes v as indented JSON or YAML.
func encodeOutput(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q, supported formats: json, yaml", format)
	}
}
