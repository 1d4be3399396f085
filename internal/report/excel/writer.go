// Package excel provides Excel report generation for the inventory loader.
// It implements the report.ReportWriter interface to generate .xlsx files
// with an overview, the sections, the server inventory and the IDC rollup.
package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"inventory-loader/internal/model"
)

const (
	// Sheet names
	sheetOverview  = "导入概览"
	sheetSections  = "分区汇总"
	sheetInventory = "服务器清单"
	sheetStatus    = "IDC 状态"

	defaultSheet = "Sheet1"

	// Colors (RGB without #)
	colorWarningBg  = "FFEB9C"
	colorWarningFg  = "9C6500"
	colorCriticalBg = "FFC7CE"
	colorCriticalFg = "9C0006"
	colorHeaderBg   = "4472C4"
	colorHeaderFg   = "FFFFFF"
	colorNormalBg   = "C6EFCE"
	colorNormalFg   = "006100"

	defaultColWidth = 15.0
	wideColWidth    = 25.0
	narrowColWidth  = 10.0
)

// Writer implements report.ReportWriter for Excel format.
type Writer struct {
	timezone *time.Location
}

// NewWriter creates a new Excel report writer.
// If timezone is nil, it defaults to Asia/Seoul.
func NewWriter(timezone *time.Location) *Writer {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Seoul")
	}
	return &Writer{
		timezone: timezone,
	}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "excel"
}

// Write generates an Excel report from the document.
func (w *Writer) Write(doc *model.Document, outputPath string) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	status := model.NewServerStatus(doc, time.Now())

	f := excelize.NewFile()
	defer f.Close()

	if err := w.createOverviewSheet(f, doc, status); err != nil {
		return fmt.Errorf("failed to create overview sheet: %w", err)
	}

	if err := w.createSectionsSheet(f, doc); err != nil {
		return fmt.Errorf("failed to create sections sheet: %w", err)
	}

	if err := w.createInventorySheet(f, doc); err != nil {
		return fmt.Errorf("failed to create inventory sheet: %w", err)
	}

	if err := w.createStatusSheet(f, status); err != nil {
		return fmt.Errorf("failed to create status sheet: %w", err)
	}

	_ = f.DeleteSheet(defaultSheet)

	idx, _ := f.GetSheetIndex(sheetOverview)
	f.SetActiveSheet(idx)

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

// createOverviewSheet creates the batch overview worksheet.
func (w *Writer) createOverviewSheet(f *excelize.File, doc *model.Document, status *model.ServerStatus) error {
	idx, err := f.NewSheet(sheetOverview)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	headerStyle, err := w.createHeaderStyle(f)
	if err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 18,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	valueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Size: 12,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	f.SetColWidth(sheetOverview, "A", "A", 20)
	f.SetColWidth(sheetOverview, "B", "B", 70)

	f.MergeCell(sheetOverview, "A1", "B1")
	f.SetCellValue(sheetOverview, "A1", "服务器资产导入报告")
	f.SetCellStyle(sheetOverview, "A1", "B1", titleStyle)
	f.SetRowHeight(sheetOverview, 1, 30)

	counts := doc.Counts()
	overview := []struct {
		label string
		value interface{}
	}{
		{"源文件", doc.Batch.SourcePath},
		{"SHA-256", doc.Batch.SourceSHA256},
		{"导入时间", doc.Batch.ImportedAt.In(w.timezone).Format("2006-01-02 15:04:05")},
		{"CSV 记录数", doc.Batch.RowCount},
		{"分区数", counts.Sections},
		{"列标签数", counts.Labels},
		{"服务器数", counts.Servers},
		{"指标单元格数", counts.Metrics},
		{"汇总行数", counts.Totals},
		{"IDC 数", status.Summary.IDCCount},
		{"健康 IDC 数", status.Summary.HealthyCount},
		{"链数", status.Summary.TotalChains},
	}

	for i, item := range overview {
		row := i + 3
		f.SetCellValue(sheetOverview, fmt.Sprintf("A%d", row), item.label)
		f.SetCellValue(sheetOverview, fmt.Sprintf("B%d", row), item.value)
		f.SetCellStyle(sheetOverview, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle)
		f.SetCellStyle(sheetOverview, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), valueStyle)
		f.SetRowHeight(sheetOverview, row, 22)
	}

	return nil
}

// createSectionsSheet lists every section with its entity counts and the
// sum of its totals rows.
func (w *Writer) createSectionsSheet(f *excelize.File, doc *model.Document) error {
	if _, err := f.NewSheet(sheetSections); err != nil {
		return err
	}

	headerStyle, err := w.createHeaderStyle(f)
	if err != nil {
		return err
	}

	headers := []string{
		"行号", "分区名称", "分区标识", "列标签", "服务器数", "汇总行数",
		"汇总 CPU (vCore)", "汇总内存 (GB)", "汇总存储 (TB)",
	}
	w.writeHeader(f, sheetSections, headers, headerStyle)
	f.SetColWidth(sheetSections, "A", "A", narrowColWidth)
	f.SetColWidth(sheetSections, "B", "D", wideColWidth)
	f.SetColWidth(sheetSections, "E", columnName(len(headers)), defaultColWidth)

	for i, section := range doc.Sections {
		row := i + 2
		labels := make([]string, 0, len(section.Labels))
		for _, l := range section.Labels {
			labels = append(labels, fmt.Sprintf("%s=%s", columnName(l.ColumnIndex+1), l.Label))
		}

		var cpu, mem, storage float64
		for _, t := range section.Totals {
			cpu += floatValue(t.TotalCPUVCore)
			mem += floatValue(t.TotalMemoryGB)
			storage += floatValue(t.TotalStorageTB)
		}

		values := []interface{}{
			section.RowNumber,
			section.Name,
			section.Slug,
			strings.Join(labels, "; "),
			len(section.Servers),
			len(section.Totals),
			cpu,
			mem,
			storage,
		}
		w.writeRow(f, sheetSections, row, values)
	}

	f.SetPanes(sheetSections, frozenHeader())
	return nil
}

// createInventorySheet lists every server record. Metric cells are
// rendered as "label=value" pairs, falling back to the column letter.
func (w *Writer) createInventorySheet(f *excelize.File, doc *model.Document) error {
	if _, err := f.NewSheet(sheetInventory); err != nil {
		return err
	}

	headerStyle, err := w.createHeaderStyle(f)
	if err != nil {
		return err
	}

	headers := []string{
		"分区", "行号", "服务器ID", "网络", "部署状态", "环境类型",
		"内网IP", "主机名", "公网IP", "CPU (vCore)", "内存 (GB)", "存储 (TB)", "指标",
	}
	w.writeHeader(f, sheetInventory, headers, headerStyle)
	f.SetColWidth(sheetInventory, "A", "A", wideColWidth)
	f.SetColWidth(sheetInventory, "B", "B", narrowColWidth)
	f.SetColWidth(sheetInventory, "C", "L", defaultColWidth)
	f.SetColWidth(sheetInventory, "M", "M", 60)

	row := 2
	for _, section := range doc.Sections {
		for _, srv := range section.Servers {
			metrics := make([]string, 0, len(srv.Metrics))
			for _, m := range srv.Metrics {
				name := columnName(m.ColumnIndex + 1)
				if m.ColumnLabel != nil {
					name = *m.ColumnLabel
				}
				metrics = append(metrics, fmt.Sprintf("%s=%s", name, m.ValueText))
			}

			values := []interface{}{
				section.Name,
				srv.RowNumber,
				srv.ServerID,
				model.StringValue(srv.Network),
				model.StringValue(srv.DeploymentStatus),
				model.StringValue(srv.EnvironmentType),
				model.StringValue(srv.PrivateIP),
				model.StringValue(srv.HostName),
				model.StringValue(srv.PublicIP),
				optionalFloat(srv.TotalCPUVCore),
				optionalFloat(srv.TotalMemoryGB),
				optionalFloat(srv.TotalStorageTB),
				strings.Join(metrics, "; "),
			}
			w.writeRow(f, sheetInventory, row, values)
			row++
		}
	}

	f.SetPanes(sheetInventory, frozenHeader())
	return f.AutoFilter(sheetInventory, fmt.Sprintf("A1:%s%d", columnName(len(headers)), max(row-1, 1)), nil)
}

// createStatusSheet lists the IDC rollup with the health status highlighted.
func (w *Writer) createStatusSheet(f *excelize.File, status *model.ServerStatus) error {
	if _, err := f.NewSheet(sheetStatus); err != nil {
		return err
	}

	headerStyle, err := w.createHeaderStyle(f)
	if err != nil {
		return err
	}
	normalStyle, err := w.createNormalStyle(f)
	if err != nil {
		return err
	}
	warningStyle, err := w.createWarningStyle(f)
	if err != nil {
		return err
	}
	criticalStyle, err := w.createCriticalStyle(f)
	if err != nil {
		return err
	}

	headers := []string{
		"IDC", "区域", "状态", "部署率", "服务器数", "链数",
		"CPU (vCore)", "内存 (GB)", "存储 (TB)", "节点",
	}
	w.writeHeader(f, sheetStatus, headers, headerStyle)
	f.SetColWidth(sheetStatus, "A", "B", wideColWidth)
	f.SetColWidth(sheetStatus, "C", "I", defaultColWidth)
	f.SetColWidth(sheetStatus, "J", "J", 80)

	for i, item := range status.Items {
		row := i + 2
		nodes := make([]string, 0, len(item.Nodes))
		for _, n := range item.Nodes {
			nodes = append(nodes, fmt.Sprintf("%s/%s (%s)", n.Chain, n.Node, n.Resources))
		}

		values := []interface{}{
			item.IDC,
			item.Region,
			statusText(item.Status),
			item.Uptime,
			item.Servers,
			item.Chains,
			item.TotalCPUVCore,
			item.TotalMemoryGB,
			item.TotalStorageTB,
			strings.Join(nodes, "\n"),
		}
		w.writeRow(f, sheetStatus, row, values)

		cell := fmt.Sprintf("C%d", row)
		if style := statusStyle(item.Status, normalStyle, warningStyle, criticalStyle); style > 0 {
			f.SetCellStyle(sheetStatus, cell, cell, style)
		}
	}

	f.SetPanes(sheetStatus, frozenHeader())
	return nil
}

// Helper functions

func (w *Writer) writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", columnName(i+1))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
	f.SetRowHeight(sheet, 1, 22)
}

func (w *Writer) writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", columnName(i+1), row), v)
	}
}

func (w *Writer) createHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: colorHeaderFg,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{colorHeaderBg},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

func (w *Writer) createWarningStyle(f *excelize.File) (int, error) {
	return w.createStatusStyle(f, colorWarningFg, colorWarningBg)
}

func (w *Writer) createCriticalStyle(f *excelize.File) (int, error) {
	return w.createStatusStyle(f, colorCriticalFg, colorCriticalBg)
}

func (w *Writer) createNormalStyle(f *excelize.File) (int, error) {
	return w.createStatusStyle(f, colorNormalFg, colorNormalBg)
}

func (w *Writer) createStatusStyle(f *excelize.File, fg, bg string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Color: fg,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{bg},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

func frozenHeader() *excelize.Panes {
	return &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}
}

func statusStyle(status model.HealthStatus, normalStyle, warningStyle, criticalStyle int) int {
	switch status {
	case model.HealthHealthy:
		return normalStyle
	case model.HealthDegraded:
		return warningStyle
	case model.HealthMaintenance:
		return criticalStyle
	default:
		return 0
	}
}

// columnName converts a 1-based column index to Excel column name (A, B, ..., Z, AA, AB, ...).
func columnName(index int) string {
	result := ""
	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
}

// statusText converts a health status to Chinese text.
func statusText(status model.HealthStatus) string {
	switch status {
	case model.HealthHealthy:
		return "健康"
	case model.HealthDegraded:
		return "降级"
	case model.HealthMaintenance:
		return "维护"
	default:
		return string(status)
	}
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// optionalFloat leaves absent values as empty cells.
func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
