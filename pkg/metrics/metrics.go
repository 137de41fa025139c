package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters the terminal API reports.
type Metrics struct {
	Requests            *prometheus.CounterVec
	LatencyMS           *prometheus.HistogramVec
	SalesSubmitted      *prometheus.CounterVec
	SalesAmount         prometheus.Counter
	SettlementConfirms  *prometheus.CounterVec
	PrintJobs           *prometheus.CounterVec
	AuthorizationDenied prometheus.Counter
}

// New registers the collectors on reg. Passing nil uses a fresh registry,
// which keeps tests from tripping over duplicate registration.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		SalesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_submitted_total",
			Help:      "Sale submissions by outcome.",
		}, []string{"outcome"}),
		SalesAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_amount_total",
			Help:      "Sum of grand totals of recorded sales.",
		}),
		SettlementConfirms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_confirms_total",
			Help:      "Settlement confirmations by outcome.",
		}, []string{"outcome"}),
		PrintJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "print_jobs_total",
			Help:      "Print jobs by document and outcome.",
		}, []string{"document", "outcome"}),
		AuthorizationDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_denied_total",
			Help:      "Rejected supervisor passcode attempts.",
		}),
	}

	reg.MustRegister(
		m.Requests,
		m.LatencyMS,
		m.SalesSubmitted,
		m.SalesAmount,
		m.SettlementConfirms,
		m.PrintJobs,
		m.AuthorizationDenied,
	)
	return m
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

