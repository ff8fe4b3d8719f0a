package web

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joestump/docshell/internal/config"
)

type metrics struct {
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	renders  *prometheus.CounterVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &metrics{
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "docshell_http_requests_in_flight",
			Help: "Number of concurrent HTTP requests currently handled.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docshell_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"code", "method", "route"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docshell_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"code", "method", "route"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docshell_page_renders_total",
			Help: "Documentation page renders by result (ok, empty_url, error).",
		}, []string{"result"}),
	}

	factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docshell_build_info",
		Help: "Metric with a constant '1' value labeled by version and goversion from which docshell was built.",
	}, []string{"version", "goversion"}).WithLabelValues(config.Version, runtime.Version()).Set(1)

	return m
}
