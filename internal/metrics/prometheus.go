// Package metrics records load statistics as Prometheus metrics and writes
// them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"inventory-loader/internal/model"
)

// Row kinds, one per classification outcome.
const (
	KindSection   = "section"
	KindInventory = "inventory"
	KindTotals    = "totals"
	KindIgnorable = "ignorable"
)

// Recorder holds the metrics of one process on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	Rows        *prometheus.CounterVec
	Records     *prometheus.CounterVec
	Duration    prometheus.Histogram
	LastSuccess prometheus.Gauge
	Failures    prometheus.Counter
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invload_rows_total",
			Help: "按分类统计的 CSV 记录数",
		}, []string{"kind"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invload_records_total",
			Help: "按实体类型统计的写入行数",
		}, []string{"entity"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "invload_load_duration_seconds",
			Help:    "单次导入耗时",
			Buckets: prometheus.DefBuckets,
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "invload_last_success_timestamp_seconds",
			Help: "最近一次成功导入的时间戳",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invload_load_failures_total",
			Help: "导入失败次数",
		}),
	}
	r.MustRegister(r.reg)
	return r
}

// MustRegister registers the metrics with reg.
func (r *Recorder) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(r.Rows, r.Records, r.Duration, r.LastSuccess, r.Failures)
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// ObserveDocument counts the rows and entities of a parsed document.
// Every row yields exactly one classification, so ignorable rows are the
// remainder of the batch row count.
func (r *Recorder) ObserveDocument(doc *model.Document) {
	if doc == nil {
		return
	}
	c := doc.Counts()

	r.Rows.WithLabelValues(KindSection).Add(float64(c.Sections))
	r.Rows.WithLabelValues(KindInventory).Add(float64(c.Servers))
	r.Rows.WithLabelValues(KindTotals).Add(float64(c.Totals))
	if ignorable := doc.Batch.RowCount - c.Sections - c.Servers - c.Totals; ignorable > 0 {
		r.Rows.WithLabelValues(KindIgnorable).Add(float64(ignorable))
	}

	r.Records.WithLabelValues("batch").Inc()
	r.Records.WithLabelValues("section").Add(float64(c.Sections))
	r.Records.WithLabelValues("label").Add(float64(c.Labels))
	r.Records.WithLabelValues("server").Add(float64(c.Servers))
	r.Records.WithLabelValues("metric").Add(float64(c.Metrics))
	r.Records.WithLabelValues("totals").Add(float64(c.Totals))
}

// ObserveSuccess records a completed load.
func (r *Recorder) ObserveSuccess(elapsed time.Duration, at time.Time) {
	r.Duration.Observe(elapsed.Seconds())
	r.LastSuccess.Set(float64(at.Unix()))
}

// ObserveFailure records a failed load.
func (r *Recorder) ObserveFailure(elapsed time.Duration) {
	r.Duration.Observe(elapsed.Seconds())
	r.Failures.Inc()
}

// WriteTextfile writes the registry to path for the node_exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
