// Package metrics exports planner metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waypoint"

// Status label values.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusFailed  = "failed"
	StatusAborted = "aborted"
	StatusInvalid = "invalid"
)

// Collector records agent, day and itinerary outcomes. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	agentCalls    *prometheus.CounterVec
	agentLatency  *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
	days          *prometheus.CounterVec
	itineraries   *prometheus.CounterVec
	itineraryCost prometheus.Counter
}

// Config configures the collector.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// IncludeRuntime registers the Go runtime and process collectors.
	IncludeRuntime bool
}

func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		IncludeRuntime: true,
	}
}

func New(cfg Config) *Collector {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: registry}

	c.agentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_calls_total",
			Help:      "Total number of agent calls",
		},
		[]string{"agent", "variant", "status"},
	)
	c.agentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_call_seconds",
			Help:      "Agent call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"agent", "variant"},
	)
	c.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_fallbacks_total",
			Help:      "Total number of role calls served by the fallback model",
		},
		[]string{"role", "reason"},
	)
	c.days = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_total",
			Help:      "Total number of planned days",
		},
		[]string{"status"},
	)
	c.itineraries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "itineraries_total",
			Help:      "Total number of itinerary generations",
		},
		[]string{"status"},
	)
	c.itineraryCost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cost_usd_total",
			Help:      "Estimated hosted model spend in USD",
		},
	)

	registry.MustRegister(c.agentCalls, c.agentLatency, c.fallbacks, c.days, c.itineraries, c.itineraryCost)
	if cfg.IncludeRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// RecordAgentCall records one agent call. variant is "primary" or "fallback".
func (c *Collector) RecordAgentCall(agent, variant string, took time.Duration, err error) {
	if c == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	c.agentCalls.WithLabelValues(agent, variant, status).Inc()
	c.agentLatency.WithLabelValues(agent, variant).Observe(took.Seconds())
}

// RecordFallback records that role fell back, with reason one of
// "probe", "error" or "empty".
func (c *Collector) RecordFallback(role, reason string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(role, reason).Inc()
}

func (c *Collector) RecordDay(success bool) {
	if c == nil {
		return
	}
	status := StatusOK
	if !success {
		status = StatusFailed
	}
	c.days.WithLabelValues(status).Inc()
}

// RecordItinerary records the outcome of one generation and its model spend.
func (c *Collector) RecordItinerary(status string, costUSD float64) {
	if c == nil {
		return
	}
	c.itineraries.WithLabelValues(status).Inc()
	if costUSD > 0 {
		c.itineraryCost.Add(costUSD)
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
