package observability

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics is the in-process registry for the write path, the outbox
// dispatcher and the projectors. Exposed in Prometheus text format.
type Metrics struct {
	useCaseOps     *CounterVec
	useCaseLatency *HistogramVec
	conflicts      *CounterVec
	retries        *CounterVec

	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	inflightMu  sync.Mutex
	inflightN   float64

	outboxAppended   *Counter
	outboxDispatched *Counter
	outboxFailed     *Counter
	outboxDepth      *Gauge

	projectorApplied *CounterVec
	projectorSkipped *CounterVec
	projectorHeld    *CounterVec
}

func New() *Metrics {
	durBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	return &Metrics{
		useCaseOps: NewCounterVec("admincore_usecase_operations_total", "Use-case write operations by op/status.", []string{"op", "status"}),
		useCaseLatency: NewHistogramVec("admincore_usecase_duration_seconds", "Use-case write latency in seconds by op/status.",
			[]string{"op", "status"}, durBuckets),
		conflicts: NewCounterVec("admincore_usecase_conflicts_total", "Optimistic-concurrency conflicts by op.", []string{"op"}),
		retries:   NewCounterVec("admincore_usecase_retryable_total", "Retryable infrastructure failures by op.", []string{"op"}),

		apiRequests: NewCounterVec("admincore_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec("admincore_api_request_duration_seconds", "API request latency in seconds by method/route.",
			[]string{"method", "route"}, durBuckets),
		apiInflight: NewGauge("admincore_api_inflight_requests", "In-flight API requests."),

		outboxAppended:   NewCounter("admincore_outbox_appended_total", "Events appended to the outbox."),
		outboxDispatched: NewCounter("admincore_outbox_dispatched_total", "Events dispatched to all projectors."),
		outboxFailed:     NewCounter("admincore_outbox_failed_total", "Dispatch attempts that failed and were rescheduled."),
		outboxDepth:      NewGauge("admincore_outbox_pending", "Pending outbox events at last drain."),

		projectorApplied: NewCounterVec("admincore_projector_applied_total", "Events applied by projector.", []string{"projector"}),
		projectorSkipped: NewCounterVec("admincore_projector_skipped_total", "Duplicate or unknown events skipped by projector.", []string{"projector", "reason"}),
		projectorHeld:    NewCounterVec("admincore_projector_held_total", "Events held back waiting for a missing version.", []string{"projector"}),
	}
}

func (m *Metrics) ObserveUseCase(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.useCaseOps.Inc(op, status)
	m.useCaseLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncConflict(op string) {
	if m == nil {
		return
	}
	m.conflicts.Inc(op)
}

func (m *Metrics) IncRetry(op string) {
	if m == nil {
		return
	}
	m.retries.Inc(op)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.inflightMu.Lock()
	m.inflightN++
	m.apiInflight.Set(m.inflightN)
	m.inflightMu.Unlock()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.inflightMu.Lock()
	m.inflightN--
	m.apiInflight.Set(m.inflightN)
	m.inflightMu.Unlock()
}

func (m *Metrics) IncOutboxAppended(n int) {
	if m != nil {
		m.outboxAppended.Add(float64(n))
	}
}

func (m *Metrics) IncOutboxDispatched() {
	if m != nil {
		m.outboxDispatched.Inc()
	}
}

func (m *Metrics) IncOutboxFailed() {
	if m != nil {
		m.outboxFailed.Inc()
	}
}

func (m *Metrics) SetOutboxDepth(n int) {
	if m != nil {
		m.outboxDepth.Set(float64(n))
	}
}

func (m *Metrics) IncProjectorApplied(p string) {
	if m != nil {
		m.projectorApplied.Inc(p)
	}
}

func (m *Metrics) IncProjectorSkipped(p, reason string) {
	if m != nil {
		m.projectorSkipped.Inc(p, reason)
	}
}

func (m *Metrics) IncProjectorHeld(p string) {
	if m != nil {
		m.projectorHeld.Inc(p)
	}
}

// WriteHTTP serves the registry in Prometheus text exposition format.
func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.useCaseOps, m.useCaseLatency, m.conflicts, m.retries,
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.outboxAppended, m.outboxDispatched, m.outboxFailed, m.outboxDepth,
		m.projectorApplied, m.projectorSkipped, m.projectorHeld,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// ---- metric primitives ----

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, 0, len(names))
	for i, n := range names {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", n, v))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl] += v
	c.mu.Unlock()
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	lbl := labelString(c.labelNames, values)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[lbl]
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, c.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type Gauge struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

func (g *Gauge) Value() float64 {
	if g == nil {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.val
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n", g.name, g.help, g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", g.name, g.val)
	return err
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	counts     map[string][]float64
	sums       map[string]float64
	totals     map[string]float64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	return &HistogramVec{
		name:       name,
		help:       help,
		labelNames: labels,
		buckets:    buckets,
		counts:     map[string][]float64{},
		sums:       map[string]float64{},
		totals:     map[string]float64{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	buckets, ok := h.counts[lbl]
	if !ok {
		buckets = make([]float64, len(h.buckets))
		h.counts[lbl] = buckets
	}
	for i, b := range h.buckets {
		if v <= b {
			buckets[i]++
		}
	}
	h.sums[lbl] += v
	h.totals[lbl]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.totals))
	for k := range h.totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, lbl := range keys {
		inner := strings.TrimSuffix(strings.TrimPrefix(lbl, "{"), "}")
		for i, b := range h.buckets {
			le := fmt.Sprintf("le=%q", fmt.Sprintf("%g", b))
			sep := ""
			if inner != "" {
				sep = ","
			}
			if _, err := fmt.Fprintf(w, "%s_bucket{%s%s%s} %f\n", h.name, inner, sep, le, h.counts[lbl][i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, lbl, h.sums[lbl]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %f\n", h.name, lbl, h.totals[lbl]); err != nil {
			return err
		}
	}
	return nil
}
