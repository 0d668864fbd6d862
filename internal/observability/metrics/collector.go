package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"AIrchitect-CLI/pkg/plugin"
)

type requestKey struct {
	handler string
	method  string
	code    string
}

type routeKey struct {
	handler string
	method  string
}

type invocationKey struct {
	plugin  string
	command string
	outcome string
}

type failureKey struct {
	plugin string
	kind   string
}

type commandKey struct {
	plugin  string
	command string
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

// Collector aggregates HTTP and plugin invocation metrics in memory.
type Collector struct {
	mu          sync.Mutex
	requests    map[requestKey]uint64
	errors      map[routeKey]uint64
	latency     map[routeKey]*histogram
	invocations map[invocationKey]uint64
	failures    map[failureKey]uint64
	durations   map[commandKey]*histogram
}

var _ plugin.Observer = (*Collector)(nil)

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		requests:    make(map[requestKey]uint64),
		errors:      make(map[routeKey]uint64),
		latency:     make(map[routeKey]*histogram),
		invocations: make(map[invocationKey]uint64),
		failures:    make(map[failureKey]uint64),
		durations:   make(map[commandKey]*histogram),
	}
}

var defaultCollector = NewCollector()

// Default returns the process-wide collector.
func Default() *Collector { return defaultCollector }

// ObserveHTTPRequest records metrics about an HTTP request lifecycle.
func (c *Collector) ObserveHTTPRequest(handler, method string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests[requestKey{handler: handler, method: method, code: strconv.Itoa(status)}]++
	key := routeKey{handler: handler, method: method}
	if status >= 500 {
		c.errors[key]++
	}
	hist := c.latency[key]
	if hist == nil {
		hist = newHistogram()
		c.latency[key] = hist
	}
	hist.observe(duration.Seconds())
}

// ObserveInvocation implements plugin.Observer.
func (c *Collector) ObserveInvocation(_ context.Context, inv plugin.Invocation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := "ok"
	if inv.Kind != "" {
		outcome = "error"
		c.failures[failureKey{plugin: inv.Plugin, kind: string(inv.Kind)}]++
	}
	c.invocations[invocationKey{plugin: inv.Plugin, command: inv.Command, outcome: outcome}]++

	key := commandKey{plugin: inv.Plugin, command: inv.Command}
	hist := c.durations[key]
	if hist == nil {
		hist = newHistogram()
		c.durations[key] = hist
	}
	hist.observe(inv.Duration.Seconds())
}

// Invocations returns the counter for one plugin, command and outcome.
func (c *Collector) Invocations(pluginName, command, outcome string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invocations[invocationKey{plugin: pluginName, command: command, outcome: outcome}]
}

func newHistogram() *histogram {
	buckets := []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Values above the last bound only appear in the +Inf bucket, which is h.count.
func (h *histogram) observe(value float64) {
	h.count++
	h.sum += value
	for idx, bound := range h.buckets {
		if value <= bound {
			for i := idx; i < len(h.counts); i++ {
				h.counts[i]++
			}
			return
		}
	}
}

func (h *histogram) snapshot() histogram {
	return histogram{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}
