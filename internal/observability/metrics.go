package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics gathered during one measurement run.
// Metrics are kept in a private registry and exported as a node-exporter
// textfile rather than served over HTTP.
type Metrics struct {
	registry *prometheus.Registry

	sizeBytes      *prometheus.GaugeVec
	treeshakeBytes *prometheus.GaugeVec

	pipelineDuration *prometheus.HistogramVec
	pipelineErrors   *prometheus.CounterVec

	snapshotOutcomes *prometheus.CounterVec
	filesMeasured    prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		sizeBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sizesnap_size_bytes",
				Help: "Size of an output file in bytes",
			},
			[]string{"file", "measure"},
		),
		treeshakeBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sizesnap_treeshake_bytes",
				Help: "Bytes left after tree-shaking an empty import of an output file",
			},
			[]string{"file", "pipeline"},
		),

		pipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sizesnap_pipeline_duration_seconds",
				Help:    "Tree-shake pipeline latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"pipeline"},
		),
		pipelineErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sizesnap_pipeline_errors_total",
				Help: "Total number of failed tree-shake pipeline runs",
			},
			[]string{"pipeline"},
		),

		snapshotOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sizesnap_snapshot_outcomes_total",
				Help: "Snapshot reconciliations by outcome",
			},
			[]string{"outcome"},
		),
		filesMeasured: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sizesnap_files_measured_total",
				Help: "Total number of output files measured",
			},
		),
	}
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSize records one size measure (bundled, minified, gzipped) of a file
func (m *Metrics) RecordSize(file, measure string, bytes int) {
	m.sizeBytes.WithLabelValues(file, measure).Set(float64(bytes))
}

// RecordFile counts a measured output file
func (m *Metrics) RecordFile() {
	m.filesMeasured.Inc()
}

// RecordTreeshake records the residual size one pipeline produced for a file
func (m *Metrics) RecordTreeshake(file, pipeline string, bytes int) {
	m.treeshakeBytes.WithLabelValues(file, pipeline).Set(float64(bytes))
}

// RecordPipeline records the duration and result of a pipeline run
func (m *Metrics) RecordPipeline(pipeline string, duration time.Duration, err error) {
	m.pipelineDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
	if err != nil {
		m.pipelineErrors.WithLabelValues(pipeline).Inc()
	}
}

// RecordOutcome records how a snapshot reconciliation finished
func (m *Metrics) RecordOutcome(outcome string) {
	m.snapshotOutcomes.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all metrics to path in the Prometheus text format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
