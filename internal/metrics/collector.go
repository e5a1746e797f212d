// Package metrics exposes load and request counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"healthinsights/domain/dataset"
	"healthinsights/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "healthinsights"

// Collector records dataset loads and HTTP traffic. It implements
// ports.LoadObserver.
type Collector struct {
	registry *prometheus.Registry

	loadsTotal      *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	rowsLoaded      prometheus.Gauge
	coercedCells    *prometheus.CounterVec
	missingCells    *prometheus.CounterVec
	negativeStays   prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: reg,
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_loads_total",
				Help:      "Dataset load attempts by result code",
			},
			[]string{"code"},
		),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of successful dataset loads",
			Buckets:   prometheus.DefBuckets,
		}),
		rowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the most recently loaded dataset",
		}),
		coercedCells: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "coerced_cells_total",
				Help:      "Unparseable cells replaced by the missing marker",
			},
			[]string{"column"},
		),
		missingCells: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "missing_cells_total",
				Help:      "Empty cells seen while loading",
			},
			[]string{"column"},
		),
		negativeStays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negative_length_of_stay_total",
			Help:      "Records discharged before admission",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		c.loadsTotal,
		c.loadDuration,
		c.rowsLoaded,
		c.coercedCells,
		c.missingCells,
		c.negativeStays,
		c.requestsTotal,
		c.requestDuration,
	)
	return c
}

// Registry returns the registry the collectors live on
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveLoad records one load attempt
func (c *Collector) ObserveLoad(report *dataset.LoadReport, err error) {
	if err != nil {
		c.loadsTotal.WithLabelValues(errors.GetCode(err)).Inc()
		return
	}
	c.loadsTotal.WithLabelValues("OK").Inc()
	if report == nil {
		return
	}
	c.loadDuration.Observe(report.Duration.Seconds())
	c.rowsLoaded.Set(float64(report.Rows))
	for col, n := range report.CoercedCells {
		c.coercedCells.WithLabelValues(string(col)).Add(float64(n))
	}
	for col, n := range report.MissingCells {
		c.missingCells.WithLabelValues(string(col)).Add(float64(n))
	}
	c.negativeStays.Add(float64(report.NegativeLengthOfStay))
}

// RecordHTTPRequest records HTTP request metrics
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records every request under its route template.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.RecordHTTPRequest(ctx.Request.Method, route, ctx.Writer.Status(), time.Since(start))
	}
}

// HTTPMiddleware is the chi form of GinMiddleware. Requests are labelled
// by the matched route pattern; anything chi did not route is "unmatched".
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		if route == "" {
			route = "unmatched"
		}
		c.RecordHTTPRequest(r.Method, route, wrapper.statusCode, time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
