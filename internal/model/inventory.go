// Package model provides data models for the inventory loader.
package model

import "time"

// ImportBatch describes one load of a source document.
type ImportBatch struct {
	SourcePath   string    `json:"source_path" yaml:"source_path"`     // 源文件位置
	SourceSHA256 string    `json:"source_sha256" yaml:"source_sha256"` // 原始字节的 SHA-256（hex）
	ImportedAt   time.Time `json:"imported_at" yaml:"imported_at"`     // 导入时间（UTC）
	RowCount     int       `json:"row_count" yaml:"row_count"`         // CSV 记录总数
}

// ColumnLabel is the meaning a section header assigns to one column.
type ColumnLabel struct {
	ColumnIndex int    `json:"column_index" yaml:"column_index"`
	Label       string `json:"label" yaml:"label"`
}

// ServerMetric is one non-empty metric cell of an inventory row.
type ServerMetric struct {
	ColumnIndex  int      `json:"column_index" yaml:"column_index"`
	ColumnLabel  *string  `json:"column_label,omitempty" yaml:"column_label,omitempty"`
	ValueText    string   `json:"value_text" yaml:"value_text"`
	ValueNumeric *float64 `json:"value_numeric,omitempty" yaml:"value_numeric,omitempty"`
}

// ServerRecord is one inventory row.
type ServerRecord struct {
	RowNumber        int     `json:"row_number" yaml:"row_number"`
	ServerID         string  `json:"server_id" yaml:"server_id"`
	Network          *string `json:"network,omitempty" yaml:"network,omitempty"`
	DeploymentStatus *string `json:"deployment_status,omitempty" yaml:"deployment_status,omitempty"`
	EnvironmentType  *string `json:"environment_type,omitempty" yaml:"environment_type,omitempty"`
	PrivateIP        *string `json:"private_ip,omitempty" yaml:"private_ip,omitempty"`
	HostName         *string `json:"host_name,omitempty" yaml:"host_name,omitempty"`
	PublicIP         *string `json:"public_ip,omitempty" yaml:"public_ip,omitempty"`

	// 汇总列（32-34），无法解析时为 nil
	TotalCPUVCore  *float64 `json:"total_cpu_vcore,omitempty" yaml:"total_cpu_vcore,omitempty"`
	TotalMemoryGB  *float64 `json:"total_memory_gb,omitempty" yaml:"total_memory_gb,omitempty"`
	TotalStorageTB *float64 `json:"total_storage_tb,omitempty" yaml:"total_storage_tb,omitempty"`

	// RawRow holds the trimmed text of columns c00..c34.
	RawRow  map[string]string `json:"raw_row" yaml:"raw_row"`
	Metrics []ServerMetric    `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// SectionTotals is an unidentified row carrying aggregate values.
type SectionTotals struct {
	RowNumber      int      `json:"row_number" yaml:"row_number"`
	TotalCPUVCore  *float64 `json:"total_cpu_vcore,omitempty" yaml:"total_cpu_vcore,omitempty"`
	TotalMemoryGB  *float64 `json:"total_memory_gb,omitempty" yaml:"total_memory_gb,omitempty"`
	TotalStorageTB *float64 `json:"total_storage_tb,omitempty" yaml:"total_storage_tb,omitempty"`
}

// ChainSection is a named block of the document together with the rows
// classified under it.
type ChainSection struct {
	RowNumber int              `json:"row_number" yaml:"row_number"`
	Name      string           `json:"section_name" yaml:"section_name"`
	Slug      string           `json:"section_slug" yaml:"section_slug"`
	Labels    []ColumnLabel    `json:"labels,omitempty" yaml:"labels,omitempty"`
	Servers   []*ServerRecord  `json:"servers,omitempty" yaml:"servers,omitempty"`
	Totals    []*SectionTotals `json:"totals,omitempty" yaml:"totals,omitempty"`
}

// Label returns the label declared for the given column, if any.
func (s *ChainSection) Label(column int) (string, bool) {
	for _, l := range s.Labels {
		if l.ColumnIndex == column {
			return l.Label, true
		}
	}
	return "", false
}

// Document is the normalized form of one source document.
type Document struct {
	Batch    ImportBatch     `json:"batch" yaml:"batch"`
	Sections []*ChainSection `json:"sections" yaml:"sections"`
}

// DocumentCounts holds the number of entities per kind in a Document.
type DocumentCounts struct {
	Sections int `json:"sections" yaml:"sections"` // 分区数
	Labels   int `json:"labels" yaml:"labels"`     // 列标签数
	Servers  int `json:"servers" yaml:"servers"`   // 服务器记录数
	Metrics  int `json:"metrics" yaml:"metrics"`   // 指标单元格数
	Totals   int `json:"totals" yaml:"totals"`     // 汇总行数
}

// Counts tallies the entities of the document.
func (d *Document) Counts() DocumentCounts {
	var c DocumentCounts
	if d == nil {
		return c
	}
	for _, s := range d.Sections {
		c.Sections++
		c.Labels += len(s.Labels)
		c.Servers += len(s.Servers)
		c.Totals += len(s.Totals)
		for _, srv := range s.Servers {
			c.Metrics += len(srv.Metrics)
		}
	}
	return c
}

// Servers returns every inventory record of the document in row order.
func (d *Document) Servers() []*ServerRecord {
	var out []*ServerRecord
	if d == nil {
		return out
	}
	for _, s := range d.Sections {
		out = append(out, s.Servers...)
	}
	return out
}

// StringValue dereferences an optional string, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
