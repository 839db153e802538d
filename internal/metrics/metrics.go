package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wwg"

// Metrics счётчики HTTP и предметной области
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	registrations   prometheus.Counter
	keysIssued      prometheus.Counter
	keysDeactivated prometheus.Counter
	feedback        *prometheus.CounterVec
	searches        *prometheus.CounterVec
}

// New регистрирует метрики в reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Students registered with a key.",
		}),
		keysIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_keys_issued_total",
			Help:      "Registration keys issued.",
		}),
		keysDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_keys_expired_total",
			Help:      "Registration keys deactivated by the expiry job.",
		}),
		feedback: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Feedback received by reason.",
		}, []string{"reason", "public"}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Paged search requests by kind.",
		}, []string{"kind"}),
	}
}

// Nop метрики в отдельном реестре, никуда не экспортируются
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RecordRegistration() {
	m.registrations.Inc()
}

func (m *Metrics) RecordKeyIssued() {
	m.keysIssued.Inc()
}

func (m *Metrics) RecordKeysDeactivated(n int64) {
	m.keysDeactivated.Add(float64(n))
}

func (m *Metrics) RecordFeedback(reason string, public bool) {
	p := "false"
	if public {
		p = "true"
	}
	m.feedback.WithLabelValues(reason, p).Inc()
}

func (m *Metrics) RecordSearch(kind string) {
	m.searches.WithLabelValues(kind).Inc()
}
