//go:build ignore
// +build ignore

// This script parses a sample inventory CSV, writes the Excel and HTML
// reports and prints the Excel sheets back for manual verification.
// Run with: go run scripts/sample_report.go
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"inventory-loader/internal/parser"
	"inventory-loader/internal/report"
)

func main() {
	content := sampleCSV()

	doc, err := parser.Parse(content, "sample.csv", time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing sample: %v\n", err)
		os.Exit(1)
	}

	tz, _ := time.LoadLocation("Asia/Seoul")
	registry := report.NewRegistry(tz, "")
	outputs, err := registry.WriteAll(context.Background(), doc, []string{"excel", "html"}, ".", "sample_inventory_report")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating reports: %v\n", err)
		os.Exit(1)
	}
	for _, out := range outputs {
		fmt.Printf("✅ %s report generated: %s\n", out.Format, out.Path)
	}

	f, err := excelize.OpenFile(outputs[0].Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening report: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  " + sheet)
		fmt.Println("═══════════════════════════════════════")
		rows, err := f.GetRows(sheet)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		for _, row := range rows {
			fmt.Println(row)
		}
		fmt.Println()
	}
}

// sampleCSV builds a small export with two sections, a totals row and a
// row before the first header.
func sampleCSV() []byte {
	row := func(cells map[int]string) []string {
		r := make([]string, parser.MinColumns)
		for i, v := range cells {
			r[i] = v
		}
		return r
	}

	records := [][]string{
		row(map[int]string{0: "Lambda256 Server Inventory"}),
		row(map[int]string{0: "*** Ethereum Mainnet ***", 11: "Client", 12: "Disk Usage"}),
		row(map[int]string{0: "eth-01", 1: "ethereum", 2: "Deployed", 3: "prod", 4: "10.0.0.11", 5: "g-idc-seoul", 6: "203.0.113.11", 11: "geth", 12: "71", 32: "16", 33: "64", 34: "4"}),
		row(map[int]string{0: "eth-02", 1: "ethereum", 2: "Standby", 3: "prod", 4: "10.0.0.12", 5: "g-idc-seoul", 11: "nethermind", 12: "n/a", 32: "16", 33: "64", 34: "4"}),
		row(map[int]string{32: "32", 33: "128", 34: "8"}),
		row(map[int]string{0: "*** Polygon ***", 11: "Role"}),
		row(map[int]string{0: "pol-01", 1: "polygon", 2: "Deployed", 5: "cherryservers-ams", 7: "8", 8: "32", 9: "2", 11: "validator"}),
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
