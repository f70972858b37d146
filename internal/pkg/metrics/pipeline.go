// Package metrics provides Prometheus metrics for the analysis pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains all metrics emitted by analysis workers.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	JobsTotal        *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	AdapterCalls     *prometheus.CounterVec
	AdapterDuration  *prometheus.HistogramVec
	AdapterErrors    *prometheus.CounterVec
	RecoveredJobs    prometheus.Counter
	QueueDepth       prometheus.Gauge
	ActiveJobsGauge  prometheus.Gauge
	AnnotationsSaved prometheus.Counter

	registry *prometheus.Registry
}

// NewPipelineMetrics creates the metrics and registers them on registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_analysis_jobs_total",
			Help: "Analysis jobs that reached a terminal state, by outcome.",
		},
		[]string{"outcome"},
	)
	m.JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindtrack_analysis_job_duration_seconds",
			Help:    "Time from claim to terminal state of an analysis job.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"outcome"},
	)
	m.AdapterCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_adapter_calls_total",
			Help: "Model adapter invocations including retries.",
		},
		[]string{"adapter", "status"},
	)
	m.AdapterDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindtrack_adapter_duration_seconds",
			Help:    "Latency of a single model adapter call.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"adapter"},
	)
	m.AdapterErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_adapter_errors_total",
			Help: "Model adapter failures by error type.",
		},
		[]string{"adapter", "error_type"},
	)
	m.RecoveredJobs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindtrack_recovered_jobs_total",
		Help: "Stale running jobs re-queued by the recovery sweep.",
	})
	m.QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mindtrack_queue_depth",
		Help: "Messages waiting in the analysis queue.",
	})
	m.ActiveJobsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mindtrack_active_jobs",
		Help: "Jobs currently being processed by this worker process.",
	})
	m.AnnotationsSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindtrack_annotations_saved_total",
		Help: "Annotations persisted to the insight store.",
	})
}

// Describe implements prometheus.Collector.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.JobsTotal.Describe(ch)
	m.JobDuration.Describe(ch)
	m.AdapterCalls.Describe(ch)
	m.AdapterDuration.Describe(ch)
	m.AdapterErrors.Describe(ch)
	m.RecoveredJobs.Describe(ch)
	m.QueueDepth.Describe(ch)
	m.ActiveJobsGauge.Describe(ch)
	m.AnnotationsSaved.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.JobsTotal.Collect(ch)
	m.JobDuration.Collect(ch)
	m.AdapterCalls.Collect(ch)
	m.AdapterDuration.Collect(ch)
	m.AdapterErrors.Collect(ch)
	m.RecoveredJobs.Collect(ch)
	m.QueueDepth.Collect(ch)
	m.ActiveJobsGauge.Collect(ch)
	m.AnnotationsSaved.Collect(ch)
}

func (m *PipelineMetrics) RecordJob(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(outcome).Inc()
	m.JobDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *PipelineMetrics) RecordAdapterCall(adapter string, d time.Duration, err error, errType string) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		m.AdapterErrors.WithLabelValues(adapter, errType).Inc()
	}
	m.AdapterCalls.WithLabelValues(adapter, status).Inc()
	m.AdapterDuration.WithLabelValues(adapter).Observe(d.Seconds())
}

func (m *PipelineMetrics) RecordRecovered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecoveredJobs.Add(float64(n))
}

func (m *PipelineMetrics) SetQueueDepth(n int64) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *PipelineMetrics) JobStarted() {
	if m == nil {
		return
	}
	m.ActiveJobsGauge.Inc()
}

func (m *PipelineMetrics) JobFinished() {
	if m == nil {
		return
	}
	m.ActiveJobsGauge.Dec()
}

func (m *PipelineMetrics) AnnotationSaved() {
	if m == nil {
		return
	}
	m.AnnotationsSaved.Inc()
}
