package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"inventory-loader/internal/model"
)

// Scan classifies every row in order, one event per row.
// The width check runs first so nothing is classified for a malformed document.
func Scan(rows []Row) ([]Event, error) {
	if err := CheckWidth(rows); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows))
	var state State
	for _, row := range rows {
		var ev Event
		ev, state = Classify(row, state)
		events = append(events, ev)
	}
	return events, nil
}

// Assemble attaches inventory and totals events to their sections.
func Assemble(batch model.ImportBatch, events []Event) *model.Document {
	doc := &model.Document{
		Batch:    batch,
		Sections: make([]*model.ChainSection, 0),
	}
	for _, ev := range events {
		switch ev.Kind {
		case EventSection:
			doc.Sections = append(doc.Sections, ev.Section)
		case EventInventory:
			ev.Section.Servers = append(ev.Section.Servers, ev.Server)
		case EventTotals:
			ev.Section.Totals = append(ev.Section.Totals, ev.Totals)
		}
	}
	return doc
}

// Parse normalizes a whole source document. sourcePath is recorded on the
// batch as given; the hash covers content exactly as fetched.
func Parse(content []byte, sourcePath string, importedAt time.Time) (*model.Document, error) {
	rows, err := ReadRows(content)
	if err != nil {
		return nil, err
	}

	events, err := Scan(rows)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(content)
	batch := model.ImportBatch{
		SourcePath:   sourcePath,
		SourceSHA256: hex.EncodeToString(sum[:]),
		ImportedAt:   importedAt.UTC(),
		RowCount:     len(rows),
	}

	return Assemble(batch, events), nil
}
