package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultConflict = "conflict"
)

type Manager struct {
	// counters
	CounterRequests     *prometheus.CounterVec
	CounterPlanItemOps  *prometheus.CounterVec
	CounterRateLimited  prometheus.Counter
	CounterCacheLookups *prometheus.CounterVec

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistItemsShifted    *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("athlos", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("athlos", "test_server", reg), reg
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "route", "status"}),
		CounterPlanItemOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_item_operations",
			Help:      "Plan item insert, reposition and remove operations by result",
		}, []string{"op", "result"}),
		CounterRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited",
			Help:      "Requests rejected by the rate limiter",
		}),
		CounterCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "exercise_cache_lookups",
			Help:      "Exercise catalog cache lookups by outcome",
		}, []string{"outcome"}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}, []string{"route"}),
		HistItemsShifted: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_items_shifted",
			Help:      "Number of other items renumbered by one plan item operation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"op"}),
	}
}

// ObservePlanItemOp records one engine operation.
func (m *Manager) ObservePlanItemOp(op, result string, shifted int) {
	m.CounterPlanItemOps.WithLabelValues(op, result).Inc()
	if result == ResultOK {
		m.HistItemsShifted.WithLabelValues(op).Observe(float64(shifted))
	}
}
