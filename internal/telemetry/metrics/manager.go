package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for CounterDuplicateEvents "source".
const (
	DuplicateSourceIdempotencyCache = "idempotency_cache"
	DuplicateSourceEventExists      = "event_exists"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterEventsIngested      prometheus.Counter
	CounterDuplicateEvents     *prometheus.CounterVec
	CounterOutOfOrderEvents    prometheus.Counter
	CounterValidationFailures  prometheus.Counter
	CounterUpsertConflicts     prometheus.Counter
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistRequestDuration         prometheus.Histogram
	HistEventProcessingDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("fitlog", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitlog", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterEventsIngested := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "events_ingested",
		Help:      "The total number of successfully stored session events",
	})
	counterDuplicateEvents := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "duplicate_events",
		Help:      "The total number of duplicate submissions, by detection source",
	}, []string{"source"})
	counterOutOfOrderEvents := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "out_of_order_events",
		Help:      "The total number of events that arrived out of chronological order",
	})
	counterValidationFailures := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "validation_failures",
		Help:      "The total number of event payloads rejected by validation",
	})
	counterUpsertConflicts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "upsert_conflicts",
		Help:      "The total number of upsert transaction retries due to write conflicts",
	})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of requests rejected by the rate limiter",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.0000001, 0.0000002, 0.0000003, 0.0000004, 0.0000005,
				0.000001, 0.0000025, 0.000005, 0.0000075, 0.00001,
				0.0001, 0.001, 0.01, 0.1, 1, 10, 60,
			},
			Name: "request_duration_seconds",
			Help: "Total duration of requests in seconds",
		},
	)
	histEventProcessingDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.0001, 0.001, 0.005, 0.01, 0.05,
				0.1, 0.5, 1, 5, 10, 60,
			},
			Name: "event_processing_duration_seconds",
			Help: "Total duration of one event upsert in seconds, idempotency bookkeeping included",
		},
	)

	return &Manager{
		CounterRequests:             counterRequests,
		CounterEventsIngested:       counterEventsIngested,
		CounterDuplicateEvents:      counterDuplicateEvents,
		CounterOutOfOrderEvents:     counterOutOfOrderEvents,
		CounterValidationFailures:   counterValidationFailures,
		CounterUpsertConflicts:      counterUpsertConflicts,
		CounterHandleRequestPanic:   counterHandleRequestPanic,
		CounterRateLimitedRequests:  counterRateLimitedRequests,
		GaugeRequests:               gaugeRequests,
		GaugeLifeSignal:             gaugeLifeSignal,
		HistRequestDuration:         histReqDuration,
		HistEventProcessingDuration: histEventProcessingDuration,
	}
}
