// Package metrics exposes Prometheus instrumentation for the HTTP surface and
// order mutations.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "logitrack"

var HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
}, []string{"route", "code"})

var HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

var Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "mutations_total",
}, []string{"kind", "result"})

// Register adds the package collectors and any extra ones to reg. Collectors
// that are already registered are skipped.
func Register(reg prometheus.Registerer, extra ...prometheus.Collector) error {
	collectors := append([]prometheus.Collector{HTTPRequests, HTTPDuration, Mutations}, extra...)
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the metrics of the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveMutation counts a mutation attempt by outcome.
func ObserveMutation(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	Mutations.WithLabelValues(kind, result).Inc()
}
