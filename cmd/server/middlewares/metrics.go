package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var requestLabels = []string{"method", "route", "status"}

type httpMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

func newHTTPMetrics() *httpMetrics {
	return &httpMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, requestLabels),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, requestLabels),
	}
}

func (m *httpMetrics) middleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	labels := prometheus.Labels{
		"method": c.Method(),
		"route":  routeTemplate(c),
		"status": statusClass(c.Response().StatusCode()),
	}
	m.duration.With(labels).Observe(time.Since(start).Seconds())
	m.total.With(labels).Inc()
	return err
}

// routeTemplate labels by the matched pattern ("/api/user/:id") so ObjectIDs
// never become label values. Unmatched requests fall back to the raw path.
func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil {
		return route.Path
	}
	return c.Path()
}

// statusClass folds 2xx/4xx/5xx; anything else keeps its exact code.
func statusClass(status int) string {
	switch status / 100 {
	case 2, 4, 5:
		return strconv.Itoa(status/100) + "xx"
	}
	return strconv.Itoa(status)
}

// AttachMetrics gives app its own registry, times every request and serves
// /metrics. extra collectors such as the activity hub gauges register with it.
func AttachMetrics(app *fiber.App, extra ...prometheus.Collector) {
	reg := prometheus.NewRegistry()
	m := newHTTPMetrics()
	reg.MustRegister(m.duration, m.total)
	reg.MustRegister(extra...)

	app.Use(m.middleware)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}
