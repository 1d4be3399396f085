// Package parser normalizes the server inventory CSV export into a
// model.Document.
//
// The export is a sequence of chain sections. A section header row carries
// the section name in its first cell, wrapped in asterisks, and declares the
// meaning of the metric columns it governs. Rows under a header are either
// inventory rows (first cell present) or totals rows (first cell empty,
// aggregates present). Everything else is ignored.
package parser

// Column layout of the export. The width requirement and the column ranges
// belong together: changing one means changing the other.
const (
	// MinColumns is the width the widest row must reach.
	MinColumns = 35

	ColIdentifier       = 0
	ColNetwork          = 1
	ColDeploymentStatus = 2
	ColEnvironmentType  = 3
	ColPrivateIP        = 4
	ColHostName         = 5
	ColPublicIP         = 6

	FirstMetricColumn = 7
	LastMetricColumn  = 31

	// Section headers declare labels only for this sub-range of the metric columns.
	FirstLabelColumn = 11
	LastLabelColumn  = 31

	ColTotalCPUVCore  = 32
	ColTotalMemoryGB  = 33
	ColTotalStorageTB = 34

	// SectionMarker opens and closes a section header cell.
	SectionMarker = "***"
)

// aggregateColumns are the cpu/memory/storage aggregate columns in order.
var aggregateColumns = [3]int{ColTotalCPUVCore, ColTotalMemoryGB, ColTotalStorageTB}
