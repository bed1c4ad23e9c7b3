package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// collection and merge pipelines.
type Metrics struct {
	SearchPages          prometheus.Counter
	OrganizationsFound   prometheus.Counter
	FilingsFetched       prometheus.Counter
	OrganizationsSkipped prometheus.Counter
	RowsWritten          *prometheus.CounterVec // label: artifact
	UnmappedFilings      prometheus.Counter
	APIRequestDuration   prometheus.Histogram
	PipelineRunning      prometheus.Gauge

	// Workbook aggregation metrics.
	WorkbooksProcessed prometheus.Counter
	SheetsProcessed    prometheus.Counter
	EntitiesDropped    prometheus.Counter
	MetricsDropped     prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SearchPages,
		m.OrganizationsFound,
		m.FilingsFetched,
		m.OrganizationsSkipped,
		m.RowsWritten,
		m.UnmappedFilings,
		m.APIRequestDuration,
		m.PipelineRunning,
		m.WorkbooksProcessed,
		m.SheetsProcessed,
		m.EntitiesDropped,
		m.MetricsDropped,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SearchPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "search_pages_total",
			Help:      "Total search result pages fetched from the API.",
		}),
		OrganizationsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "organizations_found_total",
			Help:      "Organizations discovered in the target city.",
		}),
		FilingsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "filings_fetched_total",
			Help:      "Tax filing rows fetched across all organizations.",
		}),
		OrganizationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "organizations_skipped_total",
			Help:      "Organizations skipped for missing or empty filings.",
		}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "rows_written_total",
			Help:      "Rows written per output artifact.",
		}, []string{"artifact"}),
		UnmappedFilings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "unmapped_filings_total",
			Help:      "Merged filing rows with no canonical school name.",
		}),
		APIRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "school_etl",
			Name:      "api_request_duration_seconds",
			Help:      "ProPublica API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "school_etl",
			Name:      "pipeline_running",
			Help:      "1 while a collection run is active, 0 otherwise.",
		}),
		WorkbooksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "workbooks_processed_total",
			Help:      "Enrollment workbook files processed.",
		}),
		SheetsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "sheets_processed_total",
			Help:      "Workbook sheets extracted.",
		}),
		EntitiesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "entities_dropped_total",
			Help:      "School rows dropped for a missing low grade.",
		}),
		MetricsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_etl",
			Name:      "metrics_dropped_total",
			Help:      "Metric rows dropped by the referential-integrity pass.",
		}),
	}
}
