package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// utf8BOM is the byte order mark some spreadsheet exports prepend.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInsufficientColumns is returned when no row of the document is wide
// enough to carry the fixed column layout.
var ErrInsufficientColumns = errors.New("insufficient columns")

// WidthError reports the width of the widest row found.
type WidthError struct {
	Found    int
	Required int
}

// Error implements the error interface.
func (e *WidthError) Error() string {
	return fmt.Sprintf("expected at least %d columns, found %d", e.Required, e.Found)
}

// Unwrap allows errors.Is(err, ErrInsufficientColumns).
func (e *WidthError) Unwrap() error {
	return ErrInsufficientColumns
}

// Row is one CSV record. Blank lines are kept as rows without cells.
type Row struct {
	Number int      // 1-based line on which the record starts
	Cells  []string // raw cell text, unpadded
}

// ReadRows decodes the whole document. A leading UTF-8 BOM is dropped.
// Every blank line yields an empty Row, so the result has one row per
// record or blank line and row numbers never run past len(rows) for
// single-line records.
func ReadRows(content []byte) ([]Row, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []Row
	lastLine := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		rows = appendBlankRows(rows, lastLine+1, line)
		rows = append(rows, Row{Number: line, Cells: record})
		lastLine = lineAt(content, r.InputOffset())
	}

	return appendBlankRows(rows, lastLine+1, lineAt(content, int64(len(content)))+1), nil
}

// appendBlankRows adds an empty row for every line in [from, to).
func appendBlankRows(rows []Row, from, to int) []Row {
	for n := from; n < to; n++ {
		rows = append(rows, Row{Number: n})
	}
	return rows
}

// lineAt returns the number of the line holding the last byte before
// offset, or 0 at the start of the document.
func lineAt(content []byte, offset int64) int {
	if offset <= 0 {
		return 0
	}
	head := content[:offset]
	n := bytes.Count(head, []byte("\n"))
	if head[len(head)-1] != '\n' {
		n++
	}
	return n
}

// CheckWidth fails when the widest row has fewer than MinColumns cells.
func CheckWidth(rows []Row) error {
	widest := 0
	for _, row := range rows {
		if len(row.Cells) > widest {
			widest = len(row.Cells)
		}
	}
	if widest < MinColumns {
		return &WidthError{Found: widest, Required: MinColumns}
	}
	return nil
}

// Pad right-pads cells with empty strings up to MinColumns.
// Rows that are already wide enough are returned unchanged.
func Pad(cells []string) []string {
	if len(cells) >= MinColumns {
		return cells
	}
	padded := make([]string, MinColumns)
	copy(padded, cells)
	return padded
}
