package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
)

// Metrics collects augmentation run metrics in its own registry. It is a
// keywordaugment.Observer, so passing it to WithObserver is enough to fill
// the per-operation series.
type Metrics struct {
	registry *prometheus.Registry

	RecordingsGenerated *prometheus.CounterVec
	OperationFailures   *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
	LabelsProcessed     *prometheus.CounterVec
	LabelDuration       prometheus.Histogram

	EffectsLoaded prometheus.Gauge
	AssetErrors   prometheus.Gauge
	RunDuration   prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordingsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keyaug_recordings_generated_total",
			Help: "Recordings produced, by pass",
		}, []string{"pass"}),
		OperationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keyaug_operation_failures_total",
			Help: "Operations skipped because they failed, by pass",
		}, []string{"pass"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keyaug_operation_duration_seconds",
			Help:    "Time spent on a single decode, render and encode",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		}, []string{"pass"}),
		LabelsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keyaug_labels_processed_total",
			Help: "Labels processed, by outcome",
		}, []string{"status"}),
		LabelDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "keyaug_label_duration_seconds",
			Help:    "Time spent on all passes of one label",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		}),

		EffectsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "keyaug_effects_loaded",
			Help: "Background effects available to the last run",
		}),
		AssetErrors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "keyaug_effect_load_errors",
			Help: "Background effects that failed to load in the last run",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "keyaug_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) LabelStarted(string, int) {}

func (m *Metrics) OperationDone(_ string, pass keywordaugment.Pass, err error, elapsed time.Duration) {
	p := pass.String()
	m.OperationDuration.WithLabelValues(p).Observe(elapsed.Seconds())
	if err != nil {
		m.OperationFailures.WithLabelValues(p).Inc()
		return
	}
	m.RecordingsGenerated.WithLabelValues(p).Inc()
}

func (m *Metrics) LabelFinished(result keywordaugment.LabelResult) {
	status := "ok"
	if result.Err != nil {
		status = "failed"
	}
	m.LabelsProcessed.WithLabelValues(status).Inc()
	m.LabelDuration.Observe(result.Elapsed.Seconds())
}

// RecordReport stores the run-level figures of a finished report.
func (m *Metrics) RecordReport(report *keywordaugment.Report) {
	if report == nil {
		return
	}
	m.EffectsLoaded.Set(float64(len(report.Effects)))
	m.AssetErrors.Set(float64(len(report.AssetErrors)))
	m.RunDuration.Set(report.Elapsed.Seconds())
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
