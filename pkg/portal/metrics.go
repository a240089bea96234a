package portal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures portal engine metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "portico").
	Namespace string

	// Subsystem is the metrics subsystem (default: "portal").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the metrics collector.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegisterer sets the Prometheus registry.
func WithRegisterer(reg prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = reg
	}
}

// Metrics collects portal engine metrics. A nil *Metrics is valid and
// records nothing, so instrumentation stays optional.
type Metrics struct {
	registrations  *prometheus.CounterVec
	unregistered   *prometheus.CounterVec
	childAppends   *prometheus.CounterVec
	childRemovals  *prometheus.CounterVec
	categoryEvents *prometheus.CounterVec
	renderPasses   *prometheus.CounterVec
	rootsRendered  *prometheus.CounterVec
	renderSignals  prometheus.Counter
	waitTimeouts   prometheus.Counter
}

// NewMetrics creates and registers the portal metric set.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "portico",
		Subsystem: "portal",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)
	labels := []string{"category"}

	return &Metrics{
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "registrations_total",
			Help:        "Root portal registrations.",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		unregistered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "unregistrations_total",
			Help:        "Root portal unregistrations, including cascaded children.",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		childAppends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "child_appends_total",
			Help:        "Children appended to root scopes.",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		childRemovals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "child_removals_total",
			Help:        "Children removed from root scopes.",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		categoryEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "category_events_total",
			Help:        "Category change events emitted.",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		renderPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "render_passes_total",
			Help:        "Render passes executed by category hosts.",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		rootsRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "roots_rendered_total",
			Help:        "Root composites rendered across all passes.",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		renderSignals: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "render_completed_total",
			Help:        "Render-completed signals emitted for roots.",
			ConstLabels: cfg.ConstLabels,
		}),
		waitTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "render_wait_timeouts_total",
			Help:        "Root clients that gave up waiting for a render signal.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

func (m *Metrics) recordRegister(c Category) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) recordUnregister(c Category) {
	if m == nil {
		return
	}
	m.unregistered.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) recordAppend(c Category) {
	if m == nil {
		return
	}
	m.childAppends.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) recordRemove(c Category) {
	if m == nil {
		return
	}
	m.childRemovals.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) recordCategoryEvent(c Category) {
	if m == nil {
		return
	}
	m.categoryEvents.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) recordRenderPass(c Category, roots int) {
	if m == nil {
		return
	}
	m.renderPasses.WithLabelValues(c.String()).Inc()
	m.rootsRendered.WithLabelValues(c.String()).Add(float64(roots))
}

func (m *Metrics) recordRenderCompleted() {
	if m == nil {
		return
	}
	m.renderSignals.Inc()
}

func (m *Metrics) recordWaitTimeout() {
	if m == nil {
		return
	}
	m.waitTimeouts.Inc()
}
