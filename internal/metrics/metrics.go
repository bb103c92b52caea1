// Package metrics instruments the scheduler and protocol clients with
// Prometheus counters, histograms, and gauges. This is ambient
// observability, not a domain feature: nothing under internal/scheduler
// or internal/orchestrator reads these back, they are write-only from the
// engine's perspective.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "domaincheck_inflight_checks",
		Help: "Number of domain checks currently executing",
	})

	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domaincheck_attempts_total",
			Help: "Total protocol attempts by protocol and outcome",
		},
		[]string{"protocol", "outcome"},
	)

	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domaincheck_attempt_duration_seconds",
			Help:    "Duration of a single protocol attempt",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"protocol"},
	)

	ResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domaincheck_results_total",
			Help: "Total domain results by final availability and method",
		},
		[]string{"availability", "method"},
	)

	BootstrapFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "domaincheck_bootstrap_fetches_total",
		Help: "Total bootstrap document fetches issued by the endpoint registry",
	})
)

// RecordAttempt updates attempt counters and the latency histogram for one
// protocol attempt.
func RecordAttempt(protocol, outcome string, elapsed time.Duration) {
	AttemptsTotal.WithLabelValues(protocol, outcome).Inc()
	AttemptDuration.WithLabelValues(protocol).Observe(elapsed.Seconds())
}

// RecordResult updates the final-outcome counter for one DomainResult.
func RecordResult(availability, method string) {
	ResultsTotal.WithLabelValues(availability, method).Inc()
}

// Server exposes the Prometheus registry over HTTP at /metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the given port and serving /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
