// Package metrics exposes askme's Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abyan-ai/askme/pkg/models"
)

const namespace = "askme"

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics holds every askme collector. It implements chat.Recorder.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	chatResults      *prometheus.CounterVec
	rateLimitRejects prometheus.Counter
	rateLimitFaults  prometheus.Counter
	backendDuration  prometheus.Histogram
	scrapeRequests   *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   durationBuckets,
		}, []string{"route", "method"}),
		chatResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_results_total",
			Help:      "Chat dispatch outcomes",
		}, []string{"outcome"}),
		rateLimitRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejections_total",
			Help:      "Requests rejected for exceeding the client quota",
		}),
		rateLimitFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_faults_total",
			Help:      "Client key or limiter store failures",
		}),
		backendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_duration_seconds",
			Help:      "Generative backend call duration in seconds",
			Buckets:   durationBuckets,
		}),
		scrapeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_requests_total",
			Help:      "Scrape requests by source and outcome",
		}, []string{"source", "outcome"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.chatResults,
		m.rateLimitRejects,
		m.rateLimitFaults,
		m.backendDuration,
		m.scrapeRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// TrackKeys exports the number of client keys held by an in-memory limiter.
func (m *Metrics) TrackKeys(keys func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ratelimit_tracked_keys",
		Help:      "Client keys currently held by the rate limiter",
	}, func() float64 { return float64(keys()) }))
}

// ChatResult counts one dispatch by outcome; an empty code counts as "ok".
func (m *Metrics) ChatResult(code models.ErrorCode) {
	outcome := string(code)
	if outcome == "" {
		outcome = "ok"
	}
	m.chatResults.WithLabelValues(outcome).Inc()
}

// RateLimitRejected counts a request refused for exceeding its quota.
func (m *Metrics) RateLimitRejected() { m.rateLimitRejects.Inc() }

// RateLimitFault counts a limiter or client-key failure.
func (m *Metrics) RateLimitFault() { m.rateLimitFaults.Inc() }

// BackendDuration observes the latency of one backend call.
func (m *Metrics) BackendDuration(d time.Duration) {
	m.backendDuration.Observe(d.Seconds())
}

// ScrapeResult counts one scrape request. Outcome is "ok", "not_found" or "error".
func (m *Metrics) ScrapeResult(source, outcome string) {
	m.scrapeRequests.WithLabelValues(source, outcome).Inc()
}

// Middleware records request counts and latency per chi route pattern.
// It must be mounted on a chi router.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
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
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
