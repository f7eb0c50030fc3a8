package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
)

const namespace = "nftreg"

// Metrics holds all application metrics behind one registry.
type Metrics struct {
	registry *prometheus.Registry

	opsTotal     *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
	notifyTotal  *prometheus.CounterVec
}

// New creates the metrics registry with process and Go runtime
// collectors pre-registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "operations_total",
			Help:      "Registry operations by op and outcome (ok or error code)",
		}, []string{"op", "outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by method, route and status",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Transfer notification deliveries by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.opsTotal, m.httpDuration, m.httpInFlight, m.notifyTotal)
	return m
}

// Registry exposes the underlying registry so additional collectors
// (the content store, the engine collector) can attach.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOp records one registry operation. The outcome label is "ok"
// or the domain error code.
func (m *Metrics) ObserveOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = domain.GetErrorCode(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	m.opsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// HTTPInFlight returns the in-flight gauge for middleware use.
func (m *Metrics) HTTPInFlight() prometheus.Gauge {
	return m.httpInFlight
}

// ObserveNotify records one notification delivery attempt.
func (m *Metrics) ObserveNotify(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.notifyTotal.WithLabelValues(outcome).Inc()
}
