package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsinha/perishable/pkg/infrastructure/events"
)

const namespace = "perishable"

// Metrics holds the planner's prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	Events        *prometheus.CounterVec
	Units         *prometheus.CounterVec
	Simulations   prometheus.Counter
	Solves        *prometheus.CounterVec
	SolveDuration prometheus.Histogram
	Requests      *prometheus.CounterVec
	RequestTime   *prometheus.HistogramVec
}

// New creates collectors on a fresh registry that also carries the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_events_total",
			Help:      "Simulation events published, by type.",
		}, []string{"type"}),
		Units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Units produced, sold and wasted across simulations, by product.",
		}, []string{"kind", "product"}),
		Simulations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_completed_total",
			Help:      "Simulations run to their horizon.",
		}),
		Solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizer_solves_total",
			Help:      "Production optimizer solves, by outcome.",
		}, []string{"status"}),
		SolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "optimizer_solve_seconds",
			Help:      "Wall time of production optimizer solves.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"}),
		RequestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.Events, m.Units, m.Simulations, m.Solves, m.SolveDuration, m.Requests, m.RequestTime)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSolve counts an optimizer outcome and its duration
func (m *Metrics) RecordSolve(status string, elapsed time.Duration) {
	m.Solves.WithLabelValues(status).Inc()
	m.SolveDuration.Observe(elapsed.Seconds())
}

// ObserveRequest counts one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestTime.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// EventHandler returns a subscriber that turns simulation events into counters
func (m *Metrics) EventHandler() events.EventHandler {
	return &events.HandlerFunc{
		Types: events.AllSimulationEvents,
		Fn:    m.handle,
	}
}

func (m *Metrics) handle(event events.Event) error {
	m.Events.WithLabelValues(event.Type()).Inc()
	switch data := event.Data().(type) {
	case events.BatchProduced:
		m.Units.WithLabelValues("produced", string(data.Batch.Ref.ProductID)).Add(float64(data.Batch.InitialQuantity))
	case events.BatchConsumed:
		m.Units.WithLabelValues("sold", string(data.Transaction.Batch.ProductID)).Add(float64(data.Transaction.Quantity))
	case events.BatchExpired:
		m.Units.WithLabelValues("wasted", string(data.Waste.Batch.ProductID)).Add(float64(data.Waste.Quantity))
	case events.SimulationCompleted:
		m.Simulations.Inc()
	}
	return nil
}
