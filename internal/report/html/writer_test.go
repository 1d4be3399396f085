package html

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-loader/internal/model"
)

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func testDocument() *model.Document {
	return &model.Document{
		Batch: model.ImportBatch{
			SourcePath:   "servers.csv",
			SourceSHA256: "abc123",
			ImportedAt:   time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC),
			RowCount:     3,
		},
		Sections: []*model.ChainSection{
			{
				RowNumber: 1,
				Name:      "Ethereum <main>",
				Slug:      "ethereum-main",
				Labels:    []model.ColumnLabel{{ColumnIndex: 11, Label: "Client"}},
				Servers: []*model.ServerRecord{
					{
						RowNumber:        2,
						ServerID:         "srv-1",
						Network:          strPtr("ethereum"),
						DeploymentStatus: strPtr("Deployed"),
						HostName:         strPtr("cherryservers-1"),
						TotalCPUVCore:    floatPtr(16.5),
						Metrics:          []model.ServerMetric{{ColumnIndex: 11, ColumnLabel: strPtr("Client"), ValueText: "geth"}},
					},
				},
				Totals: []*model.SectionTotals{{RowNumber: 3, TotalCPUVCore: floatPtr(16.5)}},
			},
		},
	}
}

func TestWriter_Format(t *testing.T) {
	w := NewWriter(nil, "")
	if w.Format() != "html" {
		t.Errorf("Format() = %v, want html", w.Format())
	}
}

func TestWriter_Write(t *testing.T) {
	w := NewWriter(time.UTC, "")
	path := filepath.Join(t.TempDir(), "report")

	require.NoError(t, w.Write(testDocument(), path))

	data, err := os.ReadFile(path + ".html")
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "服务器资产导入报告")
	assert.Contains(t, content, "2026-03-01 00:30:00")
	assert.Contains(t, content, "Ethereum &lt;main&gt;")
	assert.NotContains(t, content, "Ethereum <main>")
	assert.Contains(t, content, "c11: Client")
	assert.Contains(t, content, "Client=geth")
	assert.Contains(t, content, "cherryservers-1")
	assert.Contains(t, content, "Cherryservers")
	assert.Contains(t, content, `class="status-normal"`)
	assert.Contains(t, content, "第 3 行: CPU 16.5 / 内存 - / 存储 -")
}

func TestWriter_Write_UserTemplate(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "custom.html")
	require.NoError(t, os.WriteFile(tmplPath,
		[]byte(`{{.Title}}|{{.Counts.Servers}}|{{range .Status}}{{statusText .Status}}{{end}}`), 0o600))

	w := NewWriter(time.UTC, tmplPath)
	out := filepath.Join(dir, "out.html")
	require.NoError(t, w.Write(testDocument(), out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "服务器资产导入报告|1|健康", string(data))
}

func TestWriter_Write_MissingUserTemplateFallsBack(t *testing.T) {
	w := NewWriter(time.UTC, filepath.Join(t.TempDir(), "missing.html"))
	out := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, w.Write(testDocument(), out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestWriter_Write_NilDocument(t *testing.T) {
	w := NewWriter(time.UTC, "")
	if err := w.Write(nil, filepath.Join(t.TempDir(), "out.html")); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status model.HealthStatus
		want   string
	}{
		{model.HealthHealthy, "status-normal"},
		{model.HealthDegraded, "status-warning"},
		{model.HealthMaintenance, "status-critical"},
		{model.HealthStatus(""), "status-unknown"},
	}
	for _, tt := range tests {
		if got := statusClass(tt.status); got != tt.want {
			t.Errorf("statusClass(%v) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := formatNumber(nil); got != "-" {
		t.Errorf("formatNumber(nil) = %v, want -", got)
	}
	if got := formatNumber(floatPtr(64)); got != "64" {
		t.Errorf("formatNumber(64) = %v, want 64", got)
	}
}
