package observability

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the clustering pipeline and the
// read API. All methods are nil-safe so components can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	MarketsProcessed  prometheus.Counter
	MarketsSkipped    *prometheus.CounterVec
	RecordsNormalized prometheus.Counter
	DistinctNames     prometheus.Gauge
	ClustersFound     prometheus.Gauge
	NoisePoints       prometheus.Gauge
	BatchesCommitted  prometheus.Counter
	BatchFailures     prometheus.Counter
	ComparisonsBuilt  prometheus.Gauge
	PipelineDuration  prometheus.Histogram
	MatchQueries      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	marketsProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "priceless_markets_processed_total",
		Help: "Markets successfully processed by the clustering pipeline.",
	})
	marketsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "priceless_markets_skipped_total",
		Help: "Markets skipped by the pipeline, by phase.",
	}, []string{"phase"})
	recordsNormalized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "priceless_records_normalized_total",
		Help: "Raw product records given a normalized name.",
	})
	distinctNames := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "priceless_distinct_normalized_names",
		Help: "Distinct normalized names in the last clustering run.",
	})
	clustersFound := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "priceless_clusters_found",
		Help: "Clusters found in the last clustering run.",
	})
	noisePoints := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "priceless_noise_points",
		Help: "Noise points in the last clustering run.",
	})
	batchesCommitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "priceless_sync_batches_committed_total",
		Help: "Catalog update batches committed.",
	})
	batchFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "priceless_sync_batch_failures_total",
		Help: "Catalog update batches rolled back after exhausting retries.",
	})
	comparisonsBuilt := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "priceless_comparisons_built",
		Help: "Price comparison records built in the last aggregation run.",
	})
	pipelineDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "priceless_pipeline_duration_seconds",
		Help:    "Wall-clock duration of full pipeline runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	matchQueries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "priceless_match_queries_total",
		Help: "Ad-hoc keyword match queries, by outcome.",
	}, []string{"outcome"})

	registry.MustRegister(
		marketsProcessed, marketsSkipped, recordsNormalized,
		distinctNames, clustersFound, noisePoints,
		batchesCommitted, batchFailures, comparisonsBuilt,
		pipelineDuration, matchQueries,
	)

	return &Metrics{
		Registry:          registry,
		MarketsProcessed:  marketsProcessed,
		MarketsSkipped:    marketsSkipped,
		RecordsNormalized: recordsNormalized,
		DistinctNames:     distinctNames,
		ClustersFound:     clustersFound,
		NoisePoints:       noisePoints,
		BatchesCommitted:  batchesCommitted,
		BatchFailures:     batchFailures,
		ComparisonsBuilt:  comparisonsBuilt,
		PipelineDuration:  pipelineDuration,
		MatchQueries:      matchQueries,
	}
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the given port in a background goroutine.
func (m *Metrics) Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Printf("[METRICS] server stopped: %v", err)
		}
	}()
}

// IncMarketProcessed increments the processed markets counter.
func (m *Metrics) IncMarketProcessed() {
	if m == nil {
		return
	}
	m.MarketsProcessed.Inc()
}

// IncMarketSkipped increments the skipped markets counter for a phase label.
func (m *Metrics) IncMarketSkipped(phase string) {
	if m == nil {
		return
	}
	m.MarketsSkipped.WithLabelValues(phase).Inc()
}

// AddRecordsNormalized adds to the normalized records counter.
func (m *Metrics) AddRecordsNormalized(n int) {
	if m == nil {
		return
	}
	m.RecordsNormalized.Add(float64(n))
}

// SetClusteringStats records the shape of the last clustering run.
func (m *Metrics) SetClusteringStats(distinct, clusters, noise int) {
	if m == nil {
		return
	}
	m.DistinctNames.Set(float64(distinct))
	m.ClustersFound.Set(float64(clusters))
	m.NoisePoints.Set(float64(noise))
}

// IncBatchCommitted increments the committed batches counter.
func (m *Metrics) IncBatchCommitted() {
	if m == nil {
		return
	}
	m.BatchesCommitted.Inc()
}

// IncBatchFailure increments the failed batches counter.
func (m *Metrics) IncBatchFailure() {
	if m == nil {
		return
	}
	m.BatchFailures.Inc()
}

// SetComparisonsBuilt records the size of the last aggregation output.
func (m *Metrics) SetComparisonsBuilt(n int) {
	if m == nil {
		return
	}
	m.ComparisonsBuilt.Set(float64(n))
}

// ObservePipelineDuration records a full pipeline run duration in seconds.
func (m *Metrics) ObservePipelineDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PipelineDuration.Observe(seconds)
}

// IncMatchQuery increments the match query counter for an outcome label.
func (m *Metrics) IncMatchQuery(outcome string) {
	if m == nil {
		return
	}
	m.MatchQueries.WithLabelValues(outcome).Inc()
}
