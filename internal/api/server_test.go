package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AIrchitect-CLI/internal/observability/metrics"
	"AIrchitect-CLI/pkg/plugin"
)

type greeter struct {
	*plugin.Router
}

func (greeter) Name() string        { return "greeter" }
func (greeter) Version() string     { return "1.0.0" }
func (greeter) Description() string { return "says hello" }

func newGreeter(*plugin.Context) (plugin.Plugin, error) {
	r := plugin.NewRouter("greeter").
		Handle("hello", "hello [name]", func(_ context.Context, args []string) (plugin.Value, error) {
			if len(args) == 0 {
				return plugin.String("Hello, World!"), nil
			}
			return plugin.String("Hello, " + args[0] + "!"), nil
		})
	return greeter{Router: r}, nil
}

func newTestServer(t *testing.T) (*Server, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector()
	mgr, err := plugin.NewManager(t.TempDir(), plugin.WithDispatchOptions(plugin.WithObserver(collector)))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := mgr.Load("greeter", newGreeter); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(mgr.Shutdown)
	return NewServer(":0", mgr, collector), collector
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListAndDescribePlugins(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/plugins", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var list PluginList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Plugins) != 1 || list.Plugins[0].Name != "greeter" || list.Plugins[0].State != plugin.StateInitialized {
		t.Fatalf("unexpected plugin list %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/plugins/greeter", "")
	var info plugin.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil || info.Description != "says hello" {
		t.Fatalf("unexpected info %+v err=%v", info, err)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/plugins/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var res plugin.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Kind() != plugin.KindPluginNotFound {
		t.Fatalf("unexpected result %+v err=%v", res, err)
	}
}

func TestInvokeCommand(t *testing.T) {
	server, collector := newTestServer(t)
	h := server.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/plugins/greeter/commands/hello", `{"args":["Ada"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d body=%s", rec.Code, rec.Body)
	}
	var res plugin.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s, _ := res.Value.Str(); !res.IsOk() || s != "Hello, Ada!" {
		t.Fatalf("unexpected result %+v", res)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/plugins/greeter/commands/hello", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s, _ := res.Value.Str(); s != "Hello, World!" {
		t.Fatalf("empty body should mean no args, got %+v", res)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/plugins/greeter/commands/nope", `{"args":[]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown command, got %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Kind() != plugin.KindUnknownCommand {
		t.Fatalf("unexpected kind %s", res.Kind())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/plugins/greeter/commands/hello", `{"args":"Ada"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	if got := collector.Invocations("greeter", "hello", "ok"); got != 2 {
		t.Fatalf("expected 2 recorded invocations, got %d", got)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}
	_ = do(t, h, http.MethodGet, "/api/v1/plugins", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `airchitect_http_requests_total{handler="/api/v1/plugins",method="GET",code="200"} 1`) {
		t.Fatalf("http metrics missing:\n%s", rec.Body)
	}
}

func TestServerShutsDownWithContext(t *testing.T) {
	server, _ := newTestServer(t)
	server.addr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := server.Start(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
