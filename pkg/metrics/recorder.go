package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Recorder owns the service prometheus collectors. A nil Recorder is a no-op.
type Recorder struct {
	registry         *prometheus.Registry
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	toolCalls        *prometheus.CounterVec
	generations      *prometheus.CounterVec
	generationTiming *prometheus.HistogramVec
	tokens           *prometheus.CounterVec
	retries          *prometheus.CounterVec
}

// NewRecorder registers the collectors on a dedicated registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowdash_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_tool_calls_total",
			Help: "Dashboard tool executions by tool and outcome",
		}, []string{"tool", "outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_generations_total",
			Help: "Dashboard specification generations by mode and outcome",
		}, []string{"mode", "outcome"}),
		generationTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowdash_generation_duration_seconds",
			Help:    "Time spent generating a dashboard specification",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"mode"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_llm_tokens_total",
			Help: "LLM tokens consumed by kind",
		}, []string{"kind"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_http_retries_total",
			Help: "Requests replayed by the retry middleware",
		}, []string{"method", "path"}),
	}
	r.registry.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.toolCalls,
		r.generations,
		r.generationTiming,
		r.tokens,
		r.retries,
		collectors.NewGoCollector(),
	)
	return r
}

// Registry exposes the underlying registry for tests and custom collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request.
func (r *Recorder) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ToolCall records one tool execution.
func (r *Recorder) ToolCall(tool, outcome string) {
	if r == nil {
		return
	}
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// Generation records one specification generation attempt.
func (r *Recorder) Generation(mode, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(mode, outcome).Inc()
	r.generationTiming.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// Tokens adds LLM usage to the token counters.
func (r *Recorder) Tokens(usage TokenUsage) {
	if r == nil || usage.IsZero() {
		return
	}
	r.tokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	r.tokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
}

// Retry records one replayed request.
func (r *Recorder) Retry(method, path string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(method, path).Inc()
}
