package metrics

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const divisor = 100

// Metrics holds Prometheus metric vectors for the weather bot.
type Metrics struct {
	reg *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	LookupsTotal     *prometheus.CounterVec
	LookupDuration   prometheus.Histogram
	UpdatesTotal     *prometheus.CounterVec
	DeliveryFailures prometheus.Counter
}

// NewMetrics constructs and registers all weather-bot metrics on a private registry.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "weather_lookups_total",
				Help:      "Total number of weather lookups by outcome",
			},
			[]string{"outcome"},
		),

		LookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "weather_lookup_duration_seconds",
				Help:      "Histogram of weather provider lookup latencies",
				Buckets:   prometheus.DefBuckets,
			},
		),

		UpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "telegram_updates_total",
				Help:      "Total number of Telegram updates handled by kind",
			},
			[]string{"kind"},
		),

		DeliveryFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "telegram_delivery_failures_total",
				Help:      "Total number of replies Telegram refused to deliver",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LookupsTotal,
		m.LookupDuration,
		m.UpdatesTotal,
		m.DeliveryFailures,
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(
				collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/sched/latencies:seconds")},
			),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposes the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveLookup records one finished lookup.
func (m *Metrics) ObserveLookup(outcome string, d time.Duration) {
	m.LookupsTotal.WithLabelValues(outcome).Inc()
	m.LookupDuration.Observe(d.Seconds())
}

func (m *Metrics) IncUpdate(kind string) {
	m.UpdatesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDeliveryFailure() {
	m.DeliveryFailures.Inc()
}

// HTTPMiddleware returns a Gin middleware to instrument HTTP endpoints.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.HTTPRequestsTotal.With(prometheus.Labels{
			"method":       c.Request.Method,
			"endpoint":     endpoint,
			"status_class": getStatusClass(c.Writer.Status()),
		}).Inc()
		m.HTTPRequestDuration.With(prometheus.Labels{
			"method":   c.Request.Method,
			"endpoint": endpoint,
		}).Observe(d.Seconds())
	}
}

func getStatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
