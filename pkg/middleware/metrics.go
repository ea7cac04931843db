package middleware

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vmodel/pkg/model"
)

// MetricsConfig configures the Prometheus interceptor.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vmodel").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for action duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus interceptor.
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

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vmodel",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors recorded by the Prometheus interceptor.
type Metrics struct {
	actionsTotal   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	actionErrors   *prometheus.CounterVec
	inFlight       *prometheus.GaugeVec
}

type metricsKey struct {
	registry  prometheus.Registerer
	namespace string
	subsystem string
}

type cachedMetrics struct {
	metrics     *Metrics
	buckets     []float64
	constLabels prometheus.Labels
}

// Collectors are created once per registry, namespace and subsystem:
// registering the same names twice in one registry panics. A later
// Prometheus call for the same key shares them, and must ask for the same
// buckets and const labels.
var (
	metricsMu    sync.Mutex
	metricsCache = map[metricsKey]cachedMetrics{}
)

func metricsFor(config MetricsConfig) *Metrics {
	key := metricsKey{config.Registry, config.Namespace, config.Subsystem}

	metricsMu.Lock()
	defer metricsMu.Unlock()
	if c, ok := metricsCache[key]; ok {
		if !slices.Equal(c.buckets, config.Buckets) || !maps.Equal(c.constLabels, config.ConstLabels) {
			panic(fmt.Errorf("middleware: metrics %q already registered with different buckets or const labels",
				prometheus.BuildFQName(config.Namespace, config.Subsystem, "actions_total")))
		}
		return c.metrics
	}
	m := initMetrics(config)
	metricsCache[key] = cachedMetrics{
		metrics:     m,
		buckets:     slices.Clone(config.Buckets),
		constLabels: maps.Clone(config.ConstLabels),
	}
	return m
}

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "actions_total",
			Help:        "Total number of model actions dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"model", "action", "status"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "action_duration_seconds",
			Help:        "Model action duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"model", "action"}),

		actionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "action_errors_total",
			Help:        "Total number of failed model actions by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"model", "action", "error_type"}),

		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "actions_in_flight",
			Help:        "Number of model actions currently running",
			ConstLabels: config.ConstLabels,
		}, []string{"model"}),
	}
}

// Prometheus returns an interceptor that records action metrics.
//
// Metrics collected:
//   - vmodel_actions_total: actions by model, action and status
//   - vmodel_action_duration_seconds: action duration histogram
//   - vmodel_action_errors_total: failed actions by error type
//   - vmodel_actions_in_flight: running actions per model
//
// Example:
//
//	m := model.New(cart, model.WithInterceptors(
//	    middleware.Prometheus(middleware.WithNamespace("shop")),
//	))
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) model.Interceptor {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := metricsFor(config)

	return func(ctx context.Context, call model.Call, next func(context.Context) error) error {
		gauge := m.inFlight.WithLabelValues(call.Model)
		gauge.Inc()
		defer gauge.Dec()

		start := time.Now()
		err := next(ctx)
		m.actionDuration.WithLabelValues(call.Model, call.Action).
			Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.actionErrors.WithLabelValues(call.Model, call.Action, categorizeError(err)).Inc()
		}
		m.actionsTotal.WithLabelValues(call.Model, call.Action, status).Inc()
		return err
	}
}

// categorizeError maps err to a low-cardinality label value.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, model.ErrBadArgument):
		return "bad_argument"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
