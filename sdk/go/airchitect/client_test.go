package airchitect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AIrchitect-CLI/internal/api"
	"AIrchitect-CLI/pkg/plugin"
)

type counter struct {
	*plugin.Router
	n int
}

func (*counter) Name() string    { return "counter" }
func (*counter) Version() string { return "0.1.0" }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mgr, err := plugin.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	_, err = mgr.Load("counter", func(*plugin.Context) (plugin.Plugin, error) {
		c := &counter{}
		c.Router = plugin.NewRouter("counter").
			Handle("incr", "incr", func(context.Context, []string) (plugin.Value, error) {
				c.n++
				return plugin.Int(c.n), nil
			}).
			Handle("join", "join <words...>", func(_ context.Context, args []string) (plugin.Value, error) {
				if err := plugin.MinArgs(args, 1, "join <words...>"); err != nil {
					return plugin.Value{}, err
				}
				return plugin.String(strings.Join(args, "+")), nil
			})
		return c, nil
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(api.NewServer("", mgr, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		mgr.Shutdown()
	})
	return srv
}

func TestClientAgainstServer(t *testing.T) {
	srv := newServer(t)
	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	plugins, err := client.ListPlugins(ctx)
	if err != nil || len(plugins) != 1 || plugins[0].Name != "counter" {
		t.Fatalf("list plugins: %+v %v", plugins, err)
	}

	info, err := client.PluginInfo(ctx, "counter")
	if err != nil || strings.Join(info.Commands, ",") != "incr,join" {
		t.Fatalf("plugin info: %+v %v", info, err)
	}

	for want := 1.0; want <= 2; want++ {
		res, err := client.Invoke(ctx, "counter", "incr")
		if err != nil || !res.IsOk() {
			t.Fatalf("invoke: %+v %v", res, err)
		}
		if got, _ := res.Value.Float(); got != want {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	res, err := client.Invoke(ctx, "counter", "join", "a", "b c")
	if err != nil {
		t.Fatalf("invoke join: %v", err)
	}
	if s, _ := res.Value.Str(); s != "a+b c" {
		t.Fatalf("unexpected join result %+v", res)
	}

	res, err = client.Invoke(ctx, "counter", "join")
	if err != nil {
		t.Fatalf("command failures are not transport errors: %v", err)
	}
	if res.Kind() != plugin.KindInvalidArguments {
		t.Fatalf("expected invalid arguments, got %+v", res)
	}
}

func TestClientReportsAPIErrors(t *testing.T) {
	srv := newServer(t)
	client, _ := NewClient(srv.URL, srv.Client())

	_, err := client.PluginInfo(context.Background(), "ghost")
	if !IsKind(err, plugin.KindPluginNotFound) {
		t.Fatalf("expected PLUGIN_NOT_FOUND api error, got %v", err)
	}
	if !strings.Contains(err.Error(), "(404)") {
		t.Fatalf("status missing from error %q", err)
	}
}

func TestClientNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL+"/prefix", srv.Client())
	if _, err := client.Invoke(context.Background(), "p", "c"); err == nil || !strings.Contains(err.Error(), "bad gateway") {
		t.Fatalf("expected api error, got %v", err)
	}
	if _, err := client.ListPlugins(context.Background()); err == nil {
		t.Fatalf("expected error from list")
	}
}

func TestNewClientValidatesURL(t *testing.T) {
	if _, err := NewClient("not a url", nil); err == nil {
		t.Fatalf("expected error for url without scheme")
	}
}
