package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_agent"

// Metrics holds the Prometheus counters, histograms, and gauges for the agent.
type Metrics struct {
	Requests       *prometheus.CounterVec // labels: intent={greeting,help,query,error}
	RespondErrors  prometheus.Counter
	EventsReturned prometheus.Histogram

	// Provider (USGS) metrics.
	ProviderRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	ProviderDuration prometheus.Histogram
	RecordsSkipped   prometheus.Counter
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss}

	// Kafka query pipeline metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all agent metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Messages answered, by detected intent.",
		}, []string{"intent"}),
		RespondErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "respond_errors_total",
			Help:      "Query-path failures converted into an apology.",
		}),
		EventsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "events_returned",
			Help:      "Number of events included in each query report.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "USGS event queries by outcome.",
		}, []string{"outcome"}),
		ProviderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "USGS event query duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Malformed provider records dropped from otherwise good responses.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "USGS response cache lookups by result.",
		}, []string{"result"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total query messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total report messages written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Query messages that could not be turned into a report.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the Kafka query pipeline is active, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of query messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-respond-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.Requests,
		m.RespondErrors,
		m.EventsReturned,
		m.ProviderRequests,
		m.ProviderDuration,
		m.RecordsSkipped,
		m.CacheLookups,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Requests:                prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "requests_total"}, []string{"intent"}),
		RespondErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "respond_errors_total"}),
		EventsReturned:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "events_returned"}),
		ProviderRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "provider_requests_total"}, []string{"outcome"}),
		ProviderDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "provider_request_duration_seconds"}),
		RecordsSkipped:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "records_skipped_total"}),
		CacheLookups:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "cache_lookups_total"}, []string{"result"}),
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
	}
}
