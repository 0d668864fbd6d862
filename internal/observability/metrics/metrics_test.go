package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AIrchitect-CLI/pkg/plugin"
)

func TestCollectorRendersInvocations(t *testing.T) {
	c := NewCollector()
	c.ObserveInvocation(context.Background(), plugin.Invocation{Plugin: "example", Command: "hello", Duration: 3 * time.Millisecond})
	c.ObserveInvocation(context.Background(), plugin.Invocation{Plugin: "example", Command: "hello", Duration: 20 * time.Second})
	c.ObserveInvocation(context.Background(), plugin.Invocation{
		Plugin: "example", Command: "calculate", Kind: plugin.KindInvalidArguments, Duration: time.Millisecond,
	})

	if got := c.Invocations("example", "hello", "ok"); got != 2 {
		t.Fatalf("expected 2 ok invocations, got %d", got)
	}

	out := c.Render()
	for _, want := range []string{
		`airchitect_plugin_invocations_total{plugin="example",command="calculate",outcome="error"} 1`,
		`airchitect_plugin_invocations_total{plugin="example",command="hello",outcome="ok"} 2`,
		`airchitect_plugin_failures_total{plugin="example",kind="INVALID_ARGUMENTS"} 1`,
		`airchitect_plugin_invocation_duration_seconds_bucket{plugin="example",command="hello",le="0.005"} 1`,
		`airchitect_plugin_invocation_duration_seconds_bucket{plugin="example",command="hello",le="10"} 1`,
		`airchitect_plugin_invocation_duration_seconds_bucket{plugin="example",command="hello",le="+Inf"} 2`,
		`airchitect_plugin_invocation_duration_seconds_count{plugin="example",command="hello"} 2`,
		"# TYPE airchitect_plugin_invocation_duration_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, `command="calculate"`) > strings.Index(out, `command="hello"`) {
		t.Fatalf("series must be sorted:\n%s", out)
	}
}

func TestHandlerServesHTTPMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveHTTPRequest("/api/v1/plugins", http.MethodGet, 200, 10*time.Millisecond)
	c.ObserveHTTPRequest("/api/v1/plugins", http.MethodGet, 503, 10*time.Millisecond)
	c.ObserveHTTPRequest(`we"ird`, http.MethodGet, 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(c).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	for _, want := range []string{
		`airchitect_http_requests_total{handler="/api/v1/plugins",method="GET",code="503"} 1`,
		`airchitect_http_request_errors_total{handler="/api/v1/plugins",method="GET"} 1`,
		`handler="we\"ird"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestStartServerRequiresAddress(t *testing.T) {
	if err := StartServer(context.Background(), "", NewCollector()); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
