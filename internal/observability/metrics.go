package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fault_render"

// Metrics holds the Prometheus counters, histograms, and gauges for dataset
// loading and the load-request loop.
type Metrics struct {
	// Load-request loop metrics.
	RequestsConsumed  prometheus.Counter
	SummariesProduced prometheus.Counter
	RequestErrors     prometheus.Counter
	PipelineRunning   prometheus.Gauge
	BatchSize         prometheus.Histogram

	// Dataset assembly metrics.
	Loads              *prometheus.CounterVec   // labels: slot, outcome={success,schema_error,domain_error,error}
	LoadDuration       *prometheus.HistogramVec // labels: slot
	DegenerateElements *prometheus.CounterVec   // labels: slot
	SteepGroups        *prometheus.GaugeVec     // labels: slot
	DatasetRows        *prometheus.GaugeVec     // labels: slot, table={station,segment,mesh}

	// Encoding cache metrics.
	EncodingCache *prometheus.CounterVec // labels: format={geojson,kml}, result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RequestsConsumed,
		m.SummariesProduced,
		m.RequestErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.Loads,
		m.LoadDuration,
		m.DegenerateElements,
		m.SteepGroups,
		m.DatasetRows,
		m.EncodingCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_requests_consumed_total",
			Help:      "Total load requests read from the source topic.",
		}),
		SummariesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_produced_total",
			Help:      "Total dataset summaries written to the sink topic.",
		}),
		RequestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_request_errors_total",
			Help:      "Load requests that were malformed or whose load failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the load-request loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of load requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Folder loads by slot and outcome.",
		}, []string{"slot", "outcome"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a complete folder load, from table read to slot swap.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"slot"}),
		DegenerateElements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_elements_total",
			Help:      "Zero-area mesh elements seen during loads.",
		}, []string{"slot"}),
		SteepGroups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "steep_groups",
			Help:      "Mesh groups projected by the steep-dip rule in the current dataset.",
		}, []string{"slot"}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows per table in the current dataset.",
		}, []string{"slot", "table"}),
		EncodingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoding_cache_total",
			Help:      "Dataset encoding cache lookups by format and result.",
		}, []string{"format", "result"}),
	}
}
