package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClusteringMetrics holds the Prometheus metrics emitted by the
// clustering engine: PAM's swap search, CLARA's sampling loop, and the
// distributed master/worker protocol.
type ClusteringMetrics struct {
	// PAM swap metrics
	PAMIterationsTotal prometheus.Counter
	PAMSwapsTotal      prometheus.Counter
	PAMFitDuration     prometheus.Histogram
	PAMFinalError      prometheus.Gauge

	// CLARA sampling metrics
	CLARASamplesProcessed prometheus.Counter
	CLARABestError        prometheus.Gauge
	CLARASampleDuration   prometheus.Histogram

	// Distributed metrics
	DistributedSamplesIssued    prometheus.Counter
	DistributedSamplesCompleted prometheus.Counter
	DistributedRequestLatency   prometheus.Histogram
	DistributedActiveWorkers    prometheus.Gauge
}

// NewClusteringMetrics creates and registers all clustering Prometheus
// metrics.
func NewClusteringMetrics() *ClusteringMetrics {
	return &ClusteringMetrics{
		PAMIterationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kmedoids_pam_iterations_total",
				Help: "Total number of PAM swap-search iterations across all fits",
			},
		),
		PAMSwapsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kmedoids_pam_swaps_total",
				Help: "Total number of medoid swaps accepted across all fits",
			},
		),
		PAMFitDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kmedoids_pam_fit_duration_seconds",
				Help:    "Duration of a single PAM maximize call",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
			},
		),
		PAMFinalError: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kmedoids_pam_final_error",
				Help: "Aggregate error of the most recent PAM fit",
			},
		),

		CLARASamplesProcessed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kmedoids_clara_samples_processed_total",
				Help: "Total number of CLARA subsamples drawn and fit",
			},
		),
		CLARABestError: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kmedoids_clara_best_error",
				Help: "Best full-data error seen across a CLARA run's samples",
			},
		),
		CLARASampleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kmedoids_clara_sample_duration_seconds",
				Help:    "Duration of drawing and fitting a single CLARA sample",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),

		DistributedSamplesIssued: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kmedoids_distributed_samples_issued_total",
				Help: "Total number of samples the master has issued to workers",
			},
		),
		DistributedSamplesCompleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kmedoids_distributed_samples_completed_total",
				Help: "Total number of samples a worker has reported back as completed",
			},
		),
		DistributedRequestLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kmedoids_distributed_request_latency_seconds",
				Help:    "Latency between issuing a sample and receiving its result",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
			},
		),
		DistributedActiveWorkers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kmedoids_distributed_active_workers",
				Help: "Number of worker ranks currently participating in a distributed fit",
			},
		),
	}
}

// RecordPAMFit records one completed PAM maximize call.
func (m *ClusteringMetrics) RecordPAMFit(iterations, swaps int, duration time.Duration, finalError float64) {
	m.PAMIterationsTotal.Add(float64(iterations))
	m.PAMSwapsTotal.Add(float64(swaps))
	m.PAMFitDuration.Observe(duration.Seconds())
	m.PAMFinalError.Set(finalError)
}

// RecordCLARASample records one drawn-and-fit CLARA subsample.
func (m *ClusteringMetrics) RecordCLARASample(duration time.Duration, bestErrorSoFar float64) {
	m.CLARASamplesProcessed.Inc()
	m.CLARASampleDuration.Observe(duration.Seconds())
	m.CLARABestError.Set(bestErrorSoFar)
}

// RecordSampleIssued records the master handing a sample to a worker.
func (m *ClusteringMetrics) RecordSampleIssued() {
	m.DistributedSamplesIssued.Inc()
}

// RecordSampleCompleted records the master receiving a worker's result
// and the round-trip latency since it was issued.
func (m *ClusteringMetrics) RecordSampleCompleted(latency time.Duration) {
	m.DistributedSamplesCompleted.Inc()
	m.DistributedRequestLatency.Observe(latency.Seconds())
}

// SetActiveWorkers updates the active-worker-count gauge.
func (m *ClusteringMetrics) SetActiveWorkers(n int) {
	m.DistributedActiveWorkers.Set(float64(n))
}
