// Package html provides HTML report generation for the inventory loader.
// It implements the report.ReportWriter interface to generate .html files
// with the batch overview, sections, server inventory and IDC rollup.
package html

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"inventory-loader/internal/model"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Writer implements report.ReportWriter for HTML format.
type Writer struct {
	timezone     *time.Location
	templatePath string // User-defined template path (optional)
}

// TemplateData holds all data passed to the HTML template.
type TemplateData struct {
	Title       string
	ImportedAt  string
	GeneratedAt string
	Batch       model.ImportBatch
	Counts      model.DocumentCounts
	Summary     model.StatusSummary
	Sections    []*SectionData
	Status      []*model.IDCStatus
}

// SectionData represents one section formatted for template rendering.
type SectionData struct {
	Name    string
	Slug    string
	Row     int
	Labels  []string
	Servers []*ServerData
	Totals  []string
}

// ServerData represents one server record formatted for template rendering.
type ServerData struct {
	Row              int
	ServerID         string
	Network          string
	DeploymentStatus string
	HostName         string
	PrivateIP        string
	PublicIP         string
	CPU              string
	Memory           string
	Storage          string
	Metrics          []string
}

// NewWriter creates a new HTML report writer.
// If timezone is nil, it defaults to Asia/Seoul.
// If templatePath is empty, the embedded default template will be used.
func NewWriter(timezone *time.Location, templatePath string) *Writer {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Seoul")
	}
	return &Writer{
		timezone:     timezone,
		templatePath: templatePath,
	}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "html"
}

// Write generates an HTML report from the document.
func (w *Writer) Write(doc *model.Document, outputPath string) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath = outputPath + ".html"
	}

	tmpl, err := w.loadTemplate()
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	data := w.prepareTemplateData(doc, time.Now())

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

// loadTemplate loads the HTML template.
// It first tries to load a user-defined template, then falls back to the embedded default.
func (w *Writer) loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"statusClass": statusClass,
		"statusText":  statusText,
	}

	if w.templatePath != "" {
		if _, err := os.Stat(w.templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(w.templatePath)).Funcs(funcMap).ParseFiles(w.templatePath)
			if err != nil {
				return nil, fmt.Errorf("failed to parse user template: %w", err)
			}
			return tmpl, nil
		}
	}

	tmpl, err := template.New("default.html").Funcs(funcMap).ParseFS(embeddedTemplates, "templates/default.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// prepareTemplateData converts a Document to TemplateData for template rendering.
func (w *Writer) prepareTemplateData(doc *model.Document, now time.Time) *TemplateData {
	status := model.NewServerStatus(doc, now)

	sections := make([]*SectionData, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		sections = append(sections, convertSection(s))
	}

	return &TemplateData{
		Title:       "服务器资产导入报告",
		ImportedAt:  doc.Batch.ImportedAt.In(w.timezone).Format("2006-01-02 15:04:05"),
		GeneratedAt: now.In(w.timezone).Format("2006-01-02 15:04:05"),
		Batch:       doc.Batch,
		Counts:      doc.Counts(),
		Summary:     status.Summary,
		Sections:    sections,
		Status:      status.Items,
	}
}

func convertSection(s *model.ChainSection) *SectionData {
	data := &SectionData{
		Name:    s.Name,
		Slug:    s.Slug,
		Row:     s.RowNumber,
		Labels:  make([]string, 0, len(s.Labels)),
		Servers: make([]*ServerData, 0, len(s.Servers)),
		Totals:  make([]string, 0, len(s.Totals)),
	}

	for _, l := range s.Labels {
		data.Labels = append(data.Labels, fmt.Sprintf("c%02d: %s", l.ColumnIndex, l.Label))
	}

	for _, srv := range s.Servers {
		metrics := make([]string, 0, len(srv.Metrics))
		for _, m := range srv.Metrics {
			name := fmt.Sprintf("c%02d", m.ColumnIndex)
			if m.ColumnLabel != nil {
				name = *m.ColumnLabel
			}
			metrics = append(metrics, name+"="+m.ValueText)
		}

		data.Servers = append(data.Servers, &ServerData{
			Row:              srv.RowNumber,
			ServerID:         srv.ServerID,
			Network:          model.StringValue(srv.Network),
			DeploymentStatus: model.StringValue(srv.DeploymentStatus),
			HostName:         model.StringValue(srv.HostName),
			PrivateIP:        model.StringValue(srv.PrivateIP),
			PublicIP:         model.StringValue(srv.PublicIP),
			CPU:              formatNumber(srv.TotalCPUVCore),
			Memory:           formatNumber(srv.TotalMemoryGB),
			Storage:          formatNumber(srv.TotalStorageTB),
			Metrics:          metrics,
		})
	}

	for _, t := range s.Totals {
		data.Totals = append(data.Totals, fmt.Sprintf("第 %d 行: CPU %s / 内存 %s / 存储 %s",
			t.RowNumber, formatNumber(t.TotalCPUVCore), formatNumber(t.TotalMemoryGB), formatNumber(t.TotalStorageTB)))
	}

	return data
}

// Helper functions

// formatNumber renders an optional number, "-" when absent.
func formatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
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

// statusClass returns the CSS class for a health status.
func statusClass(status model.HealthStatus) string {
	switch status {
	case model.HealthHealthy:
		return "status-normal"
	case model.HealthDegraded:
		return "status-warning"
	case model.HealthMaintenance:
		return "status-critical"
	default:
		return "status-unknown"
	}
}
