package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// decimalPattern accepts plain and exponent decimals; hex, inf and nan are rejected.
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

	slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)

	leadingMarker  = regexp.MustCompile(`^\*+\s*`)
	trailingMarker = regexp.MustCompile(`\s*\*+$`)
)

// ParseNumber coerces a cell to a number. Empty or unparseable text yields nil.
func ParseNumber(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || !decimalPattern.MatchString(text) {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Slugify lowercases name and collapses every run of characters outside
// [a-z0-9] into a single hyphen, trimming hyphens at both ends.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugSeparator.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SectionName extracts the section name from a header cell such as
// "*** Zone A ***". It reports false when the cell is not a header or the
// name between the markers is empty.
func SectionName(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if !strings.HasPrefix(cell, SectionMarker) || !strings.HasSuffix(cell, SectionMarker) {
		return "", false
	}
	name := leadingMarker.ReplaceAllString(cell, "")
	name = trailingMarker.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return name, true
}

// optionalText returns nil for blank cells and the trimmed text otherwise.
func optionalText(cell string) *string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	return &cell
}
