package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos"

// Metrics groups the collectors the server exports.
type Metrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	Sales          *prometheus.CounterVec
	SalesAmount    prometheus.Counter
	Drafts         prometheus.Counter
	Sessions       prometheus.Gauge
	BackendFailure *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_finalized_total",
			Help:      "Sales finalized, by kind (cash or credit).",
		}, []string{"kind"}),
		SalesAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_amount_base_total",
			Help:      "Sum of finalized sale subtotals in base currency.",
		}),
		Drafts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_saved_total",
			Help:      "Orders parked as drafts.",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Terminal sessions currently open.",
		}),
		BackendFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_failures_total",
			Help:      "Failed or refused collaborator calls, by operation.",
		}, []string{"op"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.Sales, m.SalesAmount, m.Drafts, m.Sessions, m.BackendFailure)
	return m
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, ms float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(ms)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
