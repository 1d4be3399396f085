package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-loader/internal/model"
)

func testDocument() *model.Document {
	network := "ethereum"
	return &model.Document{
		Batch: model.ImportBatch{SourcePath: "servers.csv", ImportedAt: time.Now().UTC(), RowCount: 2},
		Sections: []*model.ChainSection{
			{
				RowNumber: 1,
				Name:      "Ethereum",
				Slug:      "ethereum",
				Servers:   []*model.ServerRecord{{RowNumber: 2, ServerID: "srv-1", Network: &network}},
			},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(nil, "")
	if len(r.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(r.writers))
	}
	if _, ok := r.writers["excel"]; !ok {
		t.Error("expected excel writer to be registered")
	}
	if _, ok := r.writers["html"]; !ok {
		t.Error("expected html writer to be registered")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(time.UTC, "")

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"excel", "excel", false},
		{"HTML", "html", false},
		{"  Excel ", "excel", false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		w, err := r.Get(tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Get(%q) expected error", tt.format)
			} else if !strings.Contains(err.Error(), "excel, html") {
				t.Errorf("Get(%q) error = %v, want supported formats listed", tt.format, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Get(%q) unexpected error: %v", tt.format, err)
		}
		if w.Format() != tt.want {
			t.Errorf("Get(%q).Format() = %v, want %v", tt.format, w.Format(), tt.want)
		}
	}
}

func TestRegistry_GetAllAndHas(t *testing.T) {
	r := NewRegistry(time.UTC, "")
	assert.Equal(t, []string{"excel", "html"}, r.GetAll())
	assert.True(t, r.Has("Excel"))
	assert.False(t, r.Has("csv"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".xlsx", Extension("excel"))
	assert.Equal(t, ".html", Extension("html"))
}

func TestRegistry_WriteAll(t *testing.T) {
	r := NewRegistry(time.UTC, "")
	dir := filepath.Join(t.TempDir(), "reports")

	outputs, err := r.WriteAll(context.Background(), testDocument(), []string{"html", "excel", "HTML"}, dir, "inventory")
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, Output{Format: "html", Path: filepath.Join(dir, "inventory.html")}, outputs[0])
	assert.Equal(t, Output{Format: "excel", Path: filepath.Join(dir, "inventory.xlsx")}, outputs[1])
	for _, out := range outputs {
		info, err := os.Stat(out.Path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestRegistry_WriteAll_UnknownFormat(t *testing.T) {
	r := NewRegistry(time.UTC, "")
	dir := filepath.Join(t.TempDir(), "reports")

	_, err := r.WriteAll(context.Background(), testDocument(), []string{"excel", "pdf"}, dir, "inventory")
	require.Error(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
