// Package report renders a parsed inventory document as human-readable
// reports. It defines the ReportWriter interface and a registry of the
// Excel and HTML implementations.
package report

import (
	"inventory-loader/internal/model"
)

// ReportWriter defines the interface for generating inventory reports.
type ReportWriter interface {
	// Write renders the document and saves it to outputPath. The format's
	// file extension is appended when missing.
	Write(doc *model.Document, outputPath string) error

	// Format returns the format identifier for this writer, e.g. "excel".
	Format() string
}

// Extension returns the file extension used for a format.
func Extension(format string) string {
	if format == "excel" {
		return ".xlsx"
	}
	return "." + format
}
