package metrics

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

const namespace = "airchitect"

// Handler exposes the collector in Prometheus text exposition format.
func Handler(c *Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = fmt.Fprint(w, c.Render())
	})
}

type labelled[K any] struct {
	key   K
	value uint64
}

type labelledHist[K any] struct {
	key K
	histogram
}

func counters[K comparable](m map[K]uint64, less func(a, b K) int) []labelled[K] {
	out := make([]labelled[K], 0, len(m))
	for k, v := range m {
		out = append(out, labelled[K]{key: k, value: v})
	}
	slices.SortFunc(out, func(a, b labelled[K]) int { return less(a.key, b.key) })
	return out
}

func histograms[K comparable](m map[K]*histogram, less func(a, b K) int) []labelledHist[K] {
	out := make([]labelledHist[K], 0, len(m))
	for k, h := range m {
		out = append(out, labelledHist[K]{key: k, histogram: h.snapshot()})
	}
	slices.SortFunc(out, func(a, b labelledHist[K]) int { return less(a.key, b.key) })
	return out
}

// Render writes every metric family in a stable order.
func (c *Collector) Render() string {
	c.mu.Lock()
	reqs := counters(c.requests, func(a, b requestKey) int {
		return cmp.Or(cmp.Compare(a.handler, b.handler), cmp.Compare(a.method, b.method), cmp.Compare(a.code, b.code))
	})
	routeLess := func(a, b routeKey) int {
		return cmp.Or(cmp.Compare(a.handler, b.handler), cmp.Compare(a.method, b.method))
	}
	errs := counters(c.errors, routeLess)
	lats := histograms(c.latency, routeLess)
	invs := counters(c.invocations, func(a, b invocationKey) int {
		return cmp.Or(cmp.Compare(a.plugin, b.plugin), cmp.Compare(a.command, b.command), cmp.Compare(a.outcome, b.outcome))
	})
	fails := counters(c.failures, func(a, b failureKey) int {
		return cmp.Or(cmp.Compare(a.plugin, b.plugin), cmp.Compare(a.kind, b.kind))
	})
	durs := histograms(c.durations, func(a, b commandKey) int {
		return cmp.Or(cmp.Compare(a.plugin, b.plugin), cmp.Compare(a.command, b.command))
	})
	c.mu.Unlock()

	var b strings.Builder
	b.Grow(2048)

	family(&b, "http_requests_total", "counter", "Total number of HTTP requests processed.")
	for _, m := range reqs {
		sample(&b, "http_requests_total", labels("handler", m.key.handler, "method", m.key.method, "code", m.key.code), strconv.FormatUint(m.value, 10))
	}
	family(&b, "http_request_errors_total", "counter", "Total number of HTTP requests that resulted in a server error.")
	for _, m := range errs {
		sample(&b, "http_request_errors_total", labels("handler", m.key.handler, "method", m.key.method), strconv.FormatUint(m.value, 10))
	}
	family(&b, "http_request_duration_seconds", "histogram", "HTTP request duration in seconds.")
	for _, m := range lats {
		writeHistogram(&b, "http_request_duration_seconds", []string{"handler", m.key.handler, "method", m.key.method}, m.histogram)
	}

	family(&b, "plugin_invocations_total", "counter", "Plugin command invocations by outcome.")
	for _, m := range invs {
		sample(&b, "plugin_invocations_total", labels("plugin", m.key.plugin, "command", m.key.command, "outcome", m.key.outcome), strconv.FormatUint(m.value, 10))
	}
	family(&b, "plugin_failures_total", "counter", "Failed plugin invocations by error kind.")
	for _, m := range fails {
		sample(&b, "plugin_failures_total", labels("plugin", m.key.plugin, "kind", m.key.kind), strconv.FormatUint(m.value, 10))
	}
	family(&b, "plugin_invocation_duration_seconds", "histogram", "Plugin command duration in seconds.")
	for _, m := range durs {
		writeHistogram(&b, "plugin_invocation_duration_seconds", []string{"plugin", m.key.plugin, "command", m.key.command}, m.histogram)
	}
	return b.String()
}

func family(b *strings.Builder, name, kind, help string) {
	fmt.Fprintf(b, "# HELP %s_%s %s\n", namespace, name, help)
	fmt.Fprintf(b, "# TYPE %s_%s %s\n", namespace, name, kind)
}

func sample(b *strings.Builder, name, labelSet, value string) {
	fmt.Fprintf(b, "%s_%s{%s} %s\n", namespace, name, labelSet, value)
}

func writeHistogram(b *strings.Builder, name string, pairs []string, h histogram) {
	for idx, bound := range h.buckets {
		sample(b, name+"_bucket", labels(append(slices.Clone(pairs), "le", formatFloat(bound))...), strconv.FormatUint(h.counts[idx], 10))
	}
	sample(b, name+"_bucket", labels(append(slices.Clone(pairs), "le", "+Inf")...), strconv.FormatUint(h.count, 10))
	sample(b, name+"_sum", labels(pairs...), formatFloat(h.sum))
	sample(b, name+"_count", labels(pairs...), strconv.FormatUint(h.count, 10))
}

func labels(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", pairs[i], escape(pairs[i+1])))
	}
	return strings.Join(parts, ",")
}

func escape(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// StartServer launches a standalone HTTP server exposing /metrics for c.
func StartServer(ctx context.Context, addr string, c *Collector) error {
	if addr == "" {
		return errors.New("metrics address is empty")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(c))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}
