package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"inventory-loader/internal/model"
)

const (
	TableImportBatches = "import_batches"
	TableSections      = "chain_sections"
	TableLabels        = "section_column_labels"
	TableInventory     = "server_inventory"
	TableMetrics       = "server_metrics"
	TableTotals        = "section_totals"
)

// Tables lists every table in foreign-key order.
var Tables = []string{
	TableImportBatches,
	TableSections,
	TableLabels,
	TableInventory,
	TableMetrics,
	TableTotals,
}

// truncateOrder lists the tables children first.
var truncateOrder = []string{
	TableMetrics,
	TableInventory,
	TableTotals,
	TableLabels,
	TableSections,
	TableImportBatches,
}

// jsonColumns are stored as jsonb in PostgreSQL.
var jsonColumns = map[string]bool{
	"raw_row_json": true,
}

// Sequence hands out increasing identifiers for one table, starting at 1.
type Sequence struct {
	last int64
}

// Next returns the next identifier.
func (s *Sequence) Next() int64 {
	s.last++
	return s.last
}

// Last returns the most recently issued identifier, or 0.
func (s *Sequence) Last() int64 {
	return s.last
}

// Insert is one row to write. Values line up with Columns; absent values are nil.
type Insert struct {
	Table   string
	Columns []string
	Values  []any
}

// Plan is the ordered list of rows a document loads as. Parents always
// precede their children.
type Plan struct {
	Inserts []Insert
	ids     map[string]*Sequence
}

// Count returns the number of rows planned for table.
func (p *Plan) Count(table string) int {
	if seq, ok := p.ids[table]; ok {
		return int(seq.Last())
	}
	return 0
}

func (p *Plan) add(table string, columns []string, values ...any) int64 {
	seq, ok := p.ids[table]
	if !ok {
		seq = &Sequence{}
		p.ids[table] = seq
	}
	id := seq.Next()
	p.Inserts = append(p.Inserts, Insert{
		Table:   table,
		Columns: append([]string{"id"}, columns...),
		Values:  append([]any{id}, values...),
	})
	return id
}

var (
	batchColumns     = []string{"source_path", "source_sha256", "imported_at", "row_count"}
	sectionColumns   = []string{"batch_id", "row_number", "section_name", "section_slug"}
	labelColumns     = []string{"section_id", "column_index", "label"}
	inventoryColumns = []string{
		"batch_id", "section_id", "row_number", "server_id", "network", "deployment_status",
		"environment_type", "private_ip", "host_name", "public_ip",
		"total_cpu_vcore", "total_memory_gb", "total_storage_tb", "raw_row_json",
	}
	metricColumns = []string{"server_record_id", "section_id", "column_index", "column_label", "value_text", "value_numeric"}
	totalsColumns = []string{"batch_id", "section_id", "row_number", "total_cpu_vcore", "total_memory_gb", "total_storage_tb"}
)

// BuildPlan assigns identifiers and orders the rows of a document.
func BuildPlan(doc *model.Document) (*Plan, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	p := &Plan{ids: make(map[string]*Sequence)}

	batchID := p.add(TableImportBatches, batchColumns,
		doc.Batch.SourcePath,
		doc.Batch.SourceSHA256,
		doc.Batch.ImportedAt.UTC(),
		int64(doc.Batch.RowCount),
	)

	for _, section := range doc.Sections {
		sectionID := p.add(TableSections, sectionColumns,
			batchID,
			int64(section.RowNumber),
			section.Name,
			section.Slug,
		)

		for _, label := range section.Labels {
			p.add(TableLabels, labelColumns, sectionID, int64(label.ColumnIndex), label.Label)
		}

		for _, srv := range section.Servers {
			raw, err := encodeRawRow(srv.RawRow)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", srv.RowNumber, err)
			}
			serverID := p.add(TableInventory, inventoryColumns,
				batchID,
				sectionID,
				int64(srv.RowNumber),
				srv.ServerID,
				nullable(srv.Network),
				nullable(srv.DeploymentStatus),
				nullable(srv.EnvironmentType),
				nullable(srv.PrivateIP),
				nullable(srv.HostName),
				nullable(srv.PublicIP),
				nullable(srv.TotalCPUVCore),
				nullable(srv.TotalMemoryGB),
				nullable(srv.TotalStorageTB),
				raw,
			)

			for _, m := range srv.Metrics {
				p.add(TableMetrics, metricColumns,
					serverID,
					sectionID,
					int64(m.ColumnIndex),
					nullable(m.ColumnLabel),
					m.ValueText,
					nullable(m.ValueNumeric),
				)
			}
		}

		for _, totals := range section.Totals {
			p.add(TableTotals, totalsColumns,
				batchID,
				sectionID,
				int64(totals.RowNumber),
				nullable(totals.TotalCPUVCore),
				nullable(totals.TotalMemoryGB),
				nullable(totals.TotalStorageTB),
			)
		}
	}

	return p, nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// encodeRawRow renders the raw snapshot as a JSON object with sorted keys.
func encodeRawRow(raw map[string]string) (string, error) {
	if raw == nil {
		raw = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return "", fmt.Errorf("failed to encode raw row: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
