package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/TarekRaafat/eleva"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "eleva").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "eleva",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for the runtime and the preview
// server.
type metrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	componentMounts   *prometheus.CounterVec
	componentUpdates  *prometheus.CounterVec
	componentUnmounts *prometheus.CounterVec
	mountedComponents prometheus.Gauge
	renderDuration    prometheus.Histogram
}

// globalMetrics is the singleton metrics instance, created on the
// first Prometheus() call.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by path and status",
			ConstLabels: config.ConstLabels,
		}, []string{"path", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"path"}),

		componentMounts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_mounts_total",
			Help:        "Total component mounts by name",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		componentUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_updates_total",
			Help:        "Total component re-renders by name",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		componentUnmounts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_unmounts_total",
			Help:        "Total component unmounts by name",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		mountedComponents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounted_components",
			Help:        "Number of currently mounted component instances",
			ConstLabels: config.ConstLabels,
		}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Server-side render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// Prometheus creates HTTP middleware that collects request metrics.
//
// Metrics collected:
//   - eleva_http_requests_total: Counter of requests by path and status
//   - eleva_http_request_duration_seconds: Histogram of request duration
//   - eleva_component_mounts_total: Counter of mounts (via ObserveApp)
//   - eleva_component_updates_total: Counter of re-renders (via ObserveApp)
//   - eleva_component_unmounts_total: Counter of unmounts (via ObserveApp)
//   - eleva_mounted_components: Gauge of live instances (via ObserveApp)
//   - eleva_render_duration_seconds: Histogram fed by RecordRender
//
// Example:
//
//	r.Use(middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	))
//	r.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) func(http.Handler) http.Handler {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "" {
				path = "/"
			}
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			m.requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(path, strconv.Itoa(sw.status)).Inc()
		})
	}
}

// statusWriter captures the response status for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades pass through the wrapped writer.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("middleware: underlying ResponseWriter does not support hijacking")
	}
	return hj.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// ObserveApp subscribes the metrics to an application's lifecycle
// events. Call after Prometheus() has initialized the metrics; it
// returns a stop function that detaches the subscriptions.
func ObserveApp(app *eleva.Eleva) (stop func()) {
	globalMetricsMu.Lock()
	m := globalMetrics
	globalMetricsMu.Unlock()
	if m == nil {
		return func() {}
	}

	stops := []func(){
		app.Emitter().On("component:mount", func(args ...any) {
			m.componentMounts.WithLabelValues(componentName(args)).Inc()
			m.mountedComponents.Inc()
		}),
		app.Emitter().On("component:update", func(args ...any) {
			m.componentUpdates.WithLabelValues(componentName(args)).Inc()
		}),
		app.Emitter().On("component:unmount", func(args ...any) {
			m.componentUnmounts.WithLabelValues(componentName(args)).Inc()
			m.mountedComponents.Dec()
		}),
	}
	return func() {
		for _, s := range stops {
			s()
		}
	}
}

func componentName(args []any) string {
	if len(args) > 0 {
		if name, ok := args[0].(string); ok {
			return name
		}
	}
	return "unknown"
}

// RecordRender records one server-side render duration.
func RecordRender(d time.Duration) {
	globalMetricsMu.Lock()
	m := globalMetrics
	globalMetricsMu.Unlock()
	if m != nil {
		m.renderDuration.Observe(d.Seconds())
	}
}
