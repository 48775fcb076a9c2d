// Package metrics exposes Prometheus instrumentation for the power service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"welchpower/internal/errors"
)

const namespace = "welchpower"

// Collector holds the service's metric vectors
type Collector struct {
	solvesTotal   *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec

	simulationsTotal *prometheus.CounterVec
	sweepPoints      prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector registers all metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		solvesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Power specifications solved, by target and outcome",
			},
			[]string{"target", "outcome"},
		),
		solveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Time spent solving a power specification",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"target"},
		),
		simulationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulations_total",
				Help:      "Monte Carlo power estimates, by outcome",
			},
			[]string{"outcome"},
		),
		sweepPoints: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_points_total",
				Help:      "Points evaluated across all power curves",
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// Outcome labels an error by its code; nil is "ok"
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return errors.GetCode(err)
}

// RecordSolve counts one solve and observes its duration
func (c *Collector) RecordSolve(target string, duration time.Duration, err error) {
	c.solvesTotal.WithLabelValues(target, Outcome(err)).Inc()
	c.solveDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// RecordSimulation counts one Monte Carlo estimate
func (c *Collector) RecordSimulation(err error) {
	c.simulationsTotal.WithLabelValues(Outcome(err)).Inc()
}

// RecordSweep counts the points of one power curve
func (c *Collector) RecordSweep(points int) {
	c.sweepPoints.Add(float64(points))
}

// RecordHTTPRequest counts one request and observes its latency
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
