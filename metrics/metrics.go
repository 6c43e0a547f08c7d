// Package metrics exposes prometheus collectors for quoting and the HTTP
// surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects and exposes metrics for the stay service
type Collector struct {
	registry *prometheus.Registry

	// Quote metrics
	quotesTotal      *prometheus.CounterVec
	adjustmentsTotal *prometheus.CounterVec
	quoteNights      prometheus.Histogram
	roomTypesSkipped *prometheus.CounterVec

	// Calendar metrics
	resortsLoaded prometheus.Gauge

	// HTTP metrics
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates a collector on its own registry, with the Go and
// process collectors included.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		quotesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stay_quotes_total",
			Help: "Total number of stay quotes by mode and outcome",
		}, []string{"mode", "status"}),
		adjustmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stay_holiday_adjustments_total",
			Help: "Total number of holiday adjustments applied to requested stays",
		}, []string{"kind"}),
		quoteNights: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stay_quote_nights",
			Help:    "Nights per quoted stay after holiday adjustment",
			Buckets: []float64{1, 2, 3, 5, 7, 10, 14, 21, 28},
		}),
		roomTypesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stay_room_types_skipped_total",
			Help: "Room types left out of all-room-type quotes for missing chart data",
		}, []string{"resort_id"}),
		resortsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stay_resorts_loaded",
			Help: "Number of resorts in the active calendar",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stay_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordQuote records one quote attempt. status is "ok" or an error class.
func (c *Collector) RecordQuote(mode, status string) {
	c.quotesTotal.WithLabelValues(mode, status).Inc()
}

// RecordStay records the adjusted length of a quoted stay and each
// adjustment kind applied to it.
func (c *Collector) RecordStay(nights int, adjustments []string) {
	c.quoteNights.Observe(float64(nights))
	for _, kind := range adjustments {
		c.adjustmentsTotal.WithLabelValues(kind).Inc()
	}
}

// RecordSkipped counts room types left out of an aggregate quote.
func (c *Collector) RecordSkipped(resortID string, n int) {
	if n > 0 {
		c.roomTypesSkipped.WithLabelValues(resortID).Add(float64(n))
	}
}

// SetResorts sets the number of resorts in the active calendar.
func (c *Collector) SetResorts(n int) {
	c.resortsLoaded.Set(float64(n))
}

// Middleware observes request durations labelled by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
