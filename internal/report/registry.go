package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"inventory-loader/internal/model"
	"inventory-loader/internal/report/excel"
	"inventory-loader/internal/report/html"
)

// Registry manages report writers for different formats.
type Registry struct {
	writers map[string]ReportWriter
}

// Output is one generated report file.
type Output struct {
	Format string
	Path   string
}

// NewRegistry creates a registry with the Excel and HTML writers.
// If timezone is nil, defaults to Asia/Seoul.
// htmlTemplatePath is optional; if empty, the embedded template is used.
func NewRegistry(timezone *time.Location, htmlTemplatePath string) *Registry {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Seoul")
	}

	excelWriter := excel.NewWriter(timezone)
	htmlWriter := html.NewWriter(timezone, htmlTemplatePath)

	r := &Registry{
		writers: make(map[string]ReportWriter),
	}
	r.writers[excelWriter.Format()] = excelWriter
	r.writers[htmlWriter.Format()] = htmlWriter

	return r
}

// Get returns a writer for the specified format.
// Format names are case-insensitive.
func (r *Registry) Get(format string) (ReportWriter, error) {
	normalizedFormat := strings.ToLower(strings.TrimSpace(format))

	writer, ok := r.writers[normalizedFormat]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q, supported formats: %s",
			format, strings.Join(r.GetAll(), ", "))
	}

	return writer, nil
}

// GetAll returns all supported format names in sorted order.
func (r *Registry) GetAll() []string {
	formats := make([]string, 0, len(r.writers))
	for format := range r.writers {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// Has checks if the specified format is supported.
func (r *Registry) Has(format string) bool {
	_, ok := r.writers[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

// WriteAll renders the document in every requested format concurrently.
// Each format writes its own file, outputDir/filenameBase plus the format's
// extension. Outputs are returned in the order of formats.
func (r *Registry) WriteAll(ctx context.Context, doc *model.Document, formats []string, outputDir, filenameBase string) ([]Output, error) {
	writers := make([]ReportWriter, 0, len(formats))
	seen := make(map[string]bool)
	for _, format := range formats {
		w, err := r.Get(format)
		if err != nil {
			return nil, err
		}
		if seen[w.Format()] {
			continue
		}
		seen[w.Format()] = true
		writers = append(writers, w)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outputs := make([]Output, len(writers))
	g, ctx := errgroup.WithContext(ctx)
	for i, w := range writers {
		path := filepath.Join(outputDir, filenameBase+Extension(w.Format()))
		outputs[i] = Output{Format: w.Format(), Path: path}
		w, path := w, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.Write(doc, path); err != nil {
				return fmt.Errorf("%s report: %w", w.Format(), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
