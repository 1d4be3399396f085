package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-loader/internal/config"
	"inventory-loader/internal/model"
	"inventory-loader/internal/parser"
	"inventory-loader/internal/sink"
	"inventory-loader/internal/source"
)

func TestGenerateFilename(t *testing.T) {
	date := time.Now().UTC().Format("2006-01-02")

	tests := []struct {
		template string
		want     string
	}{
		{"", "server_inventory_" + date},
		{"inv_{{.Date}}", "inv_" + date},
		{"inv_{{ .Date }}_x", "inv_" + date + "_x"},
		{"static", "static"},
	}
	for _, tt := range tests {
		if got := generateFilename(tt.template, time.UTC); got != tt.want {
			t.Errorf("generateFilename(%q) = %v, want %v", tt.template, got, tt.want)
		}
	}
}

func TestResolveFormatsAndOutputDir(t *testing.T) {
	cfg := &config.Config{Report: config.ReportConfig{Formats: []string{"html"}, OutputDir: "/tmp/r"}}

	formats, outputDir = nil, ""
	assert.Equal(t, []string{"html"}, resolveFormats(cfg))
	assert.Equal(t, "/tmp/r", resolveOutputDir(cfg))

	formats, outputDir = []string{"excel"}, "./out"
	t.Cleanup(func() { formats, outputDir = nil, "" })
	assert.Equal(t, []string{"excel"}, resolveFormats(cfg))
	assert.Equal(t, "./out", resolveOutputDir(cfg))

	outputDir = ""
	assert.Equal(t, "./reports", resolveOutputDir(&config.Config{}))
}

func TestApplyLoadFlags(t *testing.T) {
	csvLocation, sinkMode, dbPath, postgresDSN, scriptOut, metricsFile =
		"data.csv", "POSTGRES", "x.db", "postgres://u@h/db", "out.sql", "m.prom"
	t.Cleanup(func() {
		csvLocation, sinkMode, dbPath, postgresDSN, scriptOut, metricsFile = "", "", "", "", "", ""
	})

	cfg := &config.Config{}
	applyLoadFlags(cfg)

	assert.Equal(t, "data.csv", cfg.Source.Location)
	assert.Equal(t, config.SinkModePostgres, cfg.Sink.Mode)
	assert.Equal(t, "x.db", cfg.Sink.SQLite.Path)
	assert.Equal(t, "postgres://u@h/db", cfg.Sink.Postgres.DSN)
	assert.Equal(t, "out.sql", cfg.Sink.Script.Output)
	assert.Equal(t, "m.prom", cfg.Metrics.Textfile)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("parse: %w", &parser.WidthError{Found: 20, Required: 35}), "至少需要 35 列，实际最宽 20 列"},
		{fmt.Errorf("fetch: %w", source.ErrNotFound), "源文件不存在"},
		{fmt.Errorf("write: %w", sink.ErrUnreachable), "写入目标不可达"},
		{fmt.Errorf("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := describeError(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("describeError(%v) = %v, want it to contain %v", tt.err, got, tt.want)
		}
	}
}

func TestOpenScriptOutput(t *testing.T) {
	w, finish := openScriptOutput(&config.SinkConfig{Mode: config.SinkModeSQLite})
	assert.Nil(t, w)
	assert.NoError(t, finish(true))

	w, finish = openScriptOutput(&config.SinkConfig{Mode: config.SinkModeScript, Script: config.ScriptConfig{Output: "-"}})
	assert.Equal(t, os.Stdout, w)
	assert.NoError(t, finish(true))

	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "load.sql")
	w, finish = openScriptOutput(&config.SinkConfig{Mode: config.SinkModeScript, Script: config.ScriptConfig{Output: path}})
	_, err := w.Write([]byte("BEGIN;\n"))
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "target must not exist before commit")

	require.NoError(t, finish(true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN;\n", string(data))
	assertOnlyFile(t, dir, "load.sql")
}

func TestOpenScriptOutput_DiscardKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "load.sql")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0644))

	w, finish := openScriptOutput(&config.SinkConfig{Mode: config.SinkModeScript, Script: config.ScriptConfig{Output: path}})
	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, finish(false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))
	assertOnlyFile(t, dir, "load.sql")
}

// scriptConfig returns a script-mode configuration reading csvPath.
func scriptConfig(csvPath, out string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{Location: csvPath},
		Sink:   config.SinkConfig{Mode: config.SinkModeScript, Script: config.ScriptConfig{Output: out}},
	}
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{name}, names)
}

func TestExecuteLoad_NarrowSourceKeepsScript(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "narrow.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b,c,d,e,f\nsrv-1,net1,active,prod,10.0.0.1,host1\n"), 0644))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0755))
	out := filepath.Join(outDir, "load.sql")
	previous := []byte("BEGIN;\n-- previous good script\nCOMMIT;\n")
	require.NoError(t, os.WriteFile(out, previous, 0644))

	err := executeLoad(context.Background(), scriptConfig(csvPath, out), zerolog.Nop())
	var widthErr *parser.WidthError
	require.ErrorAs(t, err, &widthErr)
	assert.Equal(t, 6, widthErr.Found)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, previous, data)
	assertOnlyFile(t, outDir, "load.sql")
}

func TestExecuteLoad_ReplacesScript(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "servers.csv")
	content := "*** Zone A ***" + strings.Repeat(",", parser.MinColumns-1) + "\n" +
		"srv-1" + strings.Repeat(",", parser.MinColumns-1) + "\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0644))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0755))
	out := filepath.Join(outDir, "load.sql")
	require.NoError(t, os.WriteFile(out, []byte("stale\n"), 0644))

	require.NoError(t, executeLoad(context.Background(), scriptConfig(csvPath, out), zerolog.Nop()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "BEGIN;\n"))
	assert.True(t, strings.HasSuffix(string(data), "COMMIT;\n"))
	assert.Contains(t, string(data), "'srv-1'")
	assertOnlyFile(t, outDir, "load.sql")
}

func TestNewParseOutput(t *testing.T) {
	host := "g-idc-1"
	doc := &model.Document{
		Batch: model.ImportBatch{SourcePath: "servers.csv", RowCount: 2},
		Sections: []*model.ChainSection{
			{RowNumber: 1, Name: "Zone A", Slug: "zone-a", Servers: []*model.ServerRecord{{RowNumber: 2, ServerID: "srv-1", HostName: &host}}},
		},
	}

	out := NewParseOutput(doc, time.Now(), false)
	assert.Nil(t, out.Document)
	require.Len(t, out.Sections, 1)
	assert.Equal(t, SectionSummary{RowNumber: 1, Name: "Zone A", Slug: "zone-a", Servers: 1}, out.Sections[0])
	assert.Equal(t, 1, out.Status.Summary.IDCCount)

	assert.Same(t, doc, NewParseOutput(doc, time.Now(), true).Document)
}

func TestEncodeOutput(t *testing.T) {
	v := map[string]any{"name": "a<b>", "count": 2}

	var jsonBuf bytes.Buffer
	require.NoError(t, encodeOutput(&jsonBuf, v, "json"))
	assert.JSONEq(t, `{"name":"a<b>","count":2}`, jsonBuf.String())
	assert.Contains(t, jsonBuf.String(), "a<b>")

	var yamlBuf bytes.Buffer
	require.NoError(t, encodeOutput(&yamlBuf, v, "YAML"))
	assert.Equal(t, "count: 2\nname: a<b>\n", yamlBuf.String())

	assert.Error(t, encodeOutput(&bytes.Buffer{}, v, "xml"))
}
