// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the event loop, the scheduler family and the
// HTTP layer. A nil *Metrics is valid and records nothing.

package control

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "evserve").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry receives the collectors. Default: a fresh prometheus.Registry.
	Registry *prometheus.Registry
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the registry collectors are registered with.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the evserve collectors.
type Metrics struct {
	registry       *prometheus.Registry
	events         *prometheus.CounterVec
	dispatchErrors prometheus.Counter
	tasksSubmitted *prometheus.CounterVec
	tasksFinished  *prometheus.CounterVec
	tasksActive    *prometheus.GaugeVec
	responses      *prometheus.CounterVec
	bodyBytes      prometheus.Counter
	openConns      prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{Namespace: "evserve"}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		registry: cfg.Registry,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "events_total",
			Help:        "Events generated by the event loop.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),
		dispatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "dispatch_errors_total",
			Help:        "Handlers that could not be built or scheduled.",
			ConstLabels: cfg.ConstLabels,
		}),
		tasksSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   "scheduler",
			Name:        "tasks_submitted_total",
			Help:        "Tasks accepted by a scheduler.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"scheduler"}),
		tasksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   "scheduler",
			Name:        "tasks_finished_total",
			Help:        "Tasks that ran to completion, by outcome.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"scheduler", "outcome"}),
		tasksActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   "scheduler",
			Name:        "tasks_active",
			Help:        "Tasks currently executing.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"scheduler"}),
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   "http",
			Name:        "responses_total",
			Help:        "HTTP responses by status code.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"code"}),
		bodyBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   "http",
			Name:        "body_bytes_total",
			Help:        "Response body bytes written.",
			ConstLabels: cfg.ConstLabels,
		}),
		openConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   "http",
			Name:        "open_connections",
			Help:        "Connections whose handler has not finished yet.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// EventGenerated counts one event of the given kind.
func (m *Metrics) EventGenerated(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// DispatchFailed counts a handler that could not be built or scheduled.
func (m *Metrics) DispatchFailed() {
	if m == nil {
		return
	}
	m.dispatchErrors.Inc()
}

// TaskSubmitted implements concurrency.Observer.
func (m *Metrics) TaskSubmitted(scheduler string) {
	if m == nil {
		return
	}
	m.tasksSubmitted.WithLabelValues(scheduler).Inc()
}

// TaskFinished implements concurrency.Observer.
func (m *Metrics) TaskFinished(scheduler string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.tasksFinished.WithLabelValues(scheduler, outcome).Inc()
}

// ActiveChanged implements concurrency.Observer.
func (m *Metrics) ActiveChanged(scheduler string, active int) {
	if m == nil {
		return
	}
	m.tasksActive.WithLabelValues(scheduler).Set(float64(active))
}

// Response counts an HTTP response with the given status code.
func (m *Metrics) Response(code int) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(strconv.Itoa(code)).Inc()
}

// BodyBytes adds n written body bytes.
func (m *Metrics) BodyBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bodyBytes.Add(float64(n))
}

// ConnOpened and ConnClosed track connections owned by a handler.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.openConns.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.openConns.Dec()
}
