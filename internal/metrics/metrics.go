// Package metrics exposes Brenda's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "brenda"

// LLM call outcomes.
const (
	LLMOutcomeSuccess  = "success"
	LLMOutcomeError    = "error"
	LLMOutcomeFallback = "keyword_fallback"
)

// Collector holds the instruments. All methods are no-ops on a nil Collector.
type Collector struct {
	registry *prometheus.Registry

	messagesTotal       *prometheus.CounterVec
	llmCallsTotal       *prometheus.CounterVec
	fastRuleHitsTotal   prometheus.Counter
	saveFailuresTotal   prometheus.Counter
	handoffsTotal       *prometheus.CounterVec
	processingSeconds   prometheus.Histogram
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector registers the instruments on a fresh registry, so tests and
// multiple instances never collide on the global one.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	c := &Collector{registry: reg}

	c.messagesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "messages_total",
		Help:      "Inbound messages processed, by route",
	}, []string{"route"})

	c.llmCallsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "llm_calls_total",
		Help:      "Intent analysis calls, by outcome",
	}, []string{"outcome"})

	c.fastRuleHitsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "fast_rule_hits_total",
		Help:      "Payment confirmations detected without the LLM",
	})

	c.saveFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "memory_save_failures_total",
		Help:      "Lead memory writes that failed",
	})

	c.handoffsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "handoffs_total",
		Help:      "Advisor hand-offs raised, by kind",
	}, []string{"kind"})

	c.processingSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "processing_seconds",
		Help:      "End-to-end processing time of one inbound message",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	c.httpRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	c.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordMessage(route string) {
	if c == nil {
		return
	}
	c.messagesTotal.WithLabelValues(route).Inc()
}

func (c *Collector) RecordLLMCall(outcome string) {
	if c == nil {
		return
	}
	c.llmCallsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordFastRuleHit() {
	if c == nil {
		return
	}
	c.fastRuleHitsTotal.Inc()
}

// RecordSaveFailure satisfies memory.SaveFailureRecorder.
func (c *Collector) RecordSaveFailure() {
	if c == nil {
		return
	}
	c.saveFailuresTotal.Inc()
}

func (c *Collector) RecordHandoff(kind string) {
	if c == nil {
		return
	}
	c.handoffsTotal.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveProcessing(d time.Duration) {
	if c == nil {
		return
	}
	c.processingSeconds.Observe(d.Seconds())
}

// ObserveHTTP records one served request. path should be the route pattern.
func (c *Collector) ObserveHTTP(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
