package parser

import (
	"fmt"
	"strings"

	"inventory-loader/internal/model"
)

// EventKind is the classification of a single row.
type EventKind int

const (
	EventIgnorable EventKind = iota
	EventSection
	EventInventory
	EventTotals
)

// String returns the lowercase name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventSection:
		return "section"
	case EventInventory:
		return "inventory"
	case EventTotals:
		return "totals"
	default:
		return "ignorable"
	}
}

// Event is the result of classifying one row. Section is the header that
// governs the row (for EventSection, the header the row opens); it is nil
// only for ignorable rows seen before the first header.
type Event struct {
	Kind      EventKind
	RowNumber int
	Section   *model.ChainSection
	Server    *model.ServerRecord
	Totals    *model.SectionTotals
}

// State is the section context carried from one row to the next.
// The zero value means no section header has been seen yet.
type State struct {
	section *model.ChainSection
	labels  map[int]string
}

// Active reports whether a section header has been seen.
func (s State) Active() bool {
	return s.section != nil
}

// Section returns the current section, or nil.
func (s State) Section() *model.ChainSection {
	return s.section
}

// Classify decides what a row is, given the context left by the rows before
// it, and returns the context for the next row. It does not modify state.
func Classify(row Row, state State) (Event, State) {
	cells := Pad(row.Cells)
	ev := Event{Kind: EventIgnorable, RowNumber: row.Number, Section: state.section}

	if name, ok := SectionName(cells[ColIdentifier]); ok {
		section, labels := newSection(row.Number, name, cells)
		ev.Kind = EventSection
		ev.Section = section
		return ev, State{section: section, labels: labels}
	}

	if !state.Active() {
		return ev, state
	}

	if strings.TrimSpace(cells[ColIdentifier]) != "" {
		ev.Kind = EventInventory
		ev.Server = newServerRecord(row.Number, cells, state.labels)
		return ev, state
	}

	if hasAggregates(cells) {
		ev.Kind = EventTotals
		ev.Totals = &model.SectionTotals{
			RowNumber:      row.Number,
			TotalCPUVCore:  ParseNumber(cells[ColTotalCPUVCore]),
			TotalMemoryGB:  ParseNumber(cells[ColTotalMemoryGB]),
			TotalStorageTB: ParseNumber(cells[ColTotalStorageTB]),
		}
	}

	return ev, state
}

// newSection builds a section and its label map from a header row.
// Labels of earlier sections never carry over.
func newSection(rowNumber int, name string, cells []string) (*model.ChainSection, map[int]string) {
	section := &model.ChainSection{
		RowNumber: rowNumber,
		Name:      name,
		Slug:      Slugify(name),
	}
	labels := make(map[int]string)
	for idx := FirstLabelColumn; idx <= LastLabelColumn; idx++ {
		label := strings.TrimSpace(cells[idx])
		if label == "" {
			continue
		}
		labels[idx] = label
		section.Labels = append(section.Labels, model.ColumnLabel{ColumnIndex: idx, Label: label})
	}
	return section, labels
}

func newServerRecord(rowNumber int, cells []string, labels map[int]string) *model.ServerRecord {
	record := &model.ServerRecord{
		RowNumber:        rowNumber,
		ServerID:         strings.TrimSpace(cells[ColIdentifier]),
		Network:          optionalText(cells[ColNetwork]),
		DeploymentStatus: optionalText(cells[ColDeploymentStatus]),
		EnvironmentType:  optionalText(cells[ColEnvironmentType]),
		PrivateIP:        optionalText(cells[ColPrivateIP]),
		HostName:         optionalText(cells[ColHostName]),
		PublicIP:         optionalText(cells[ColPublicIP]),
		TotalCPUVCore:    ParseNumber(cells[ColTotalCPUVCore]),
		TotalMemoryGB:    ParseNumber(cells[ColTotalMemoryGB]),
		TotalStorageTB:   ParseNumber(cells[ColTotalStorageTB]),
		RawRow:           RawSnapshot(cells),
	}

	for idx := FirstMetricColumn; idx <= LastMetricColumn; idx++ {
		text := strings.TrimSpace(cells[idx])
		if text == "" {
			continue
		}
		metric := model.ServerMetric{
			ColumnIndex:  idx,
			ValueText:    text,
			ValueNumeric: ParseNumber(text),
		}
		if label, ok := labels[idx]; ok {
			metric.ColumnLabel = &label
		}
		record.Metrics = append(record.Metrics, metric)
	}

	return record
}

// RawSnapshot maps "c00".."c34" to the trimmed text of each cell.
func RawSnapshot(cells []string) map[string]string {
	cells = Pad(cells)
	raw := make(map[string]string, MinColumns)
	for idx := 0; idx < MinColumns; idx++ {
		raw[RawKey(idx)] = strings.TrimSpace(cells[idx])
	}
	return raw
}

// RawKey is the snapshot key of a column index.
func RawKey(column int) string {
	return fmt.Sprintf("c%02d", column)
}

func hasAggregates(cells []string) bool {
	for _, idx := range aggregateColumns {
		if strings.TrimSpace(cells[idx]) != "" {
			return true
		}
	}
	return false
}
