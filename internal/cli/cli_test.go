package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AIrchitect-CLI/internal/config"
	"AIrchitect-CLI/internal/events"
	"AIrchitect-CLI/pkg/plugin"
)

func writeConfig(t *testing.T, extra map[string]any) string {
	t.Helper()
	dir := t.TempDir()
	cfg := map[string]any{
		"runtime": map[string]any{"data_dir": filepath.Join(dir, "data")},
		"log":     map[string]any{"level": "error"},
	}
	for k, v := range extra {
		cfg[k] = v
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "airchitect.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPluginsList(t *testing.T) {
	path := writeConfig(t, nil)

	out, err := execute(t, "--config", path, "plugins", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "example")
	assert.Contains(t, out, "notes")
	assert.Contains(t, out, "records")

	out, err = execute(t, "--config", path, "plugins", "list", "--json")
	require.NoError(t, err)
	var infos []plugin.Info
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 3)
	for _, info := range infos {
		assert.Equal(t, plugin.StateInitialized, info.State, info.Name)
	}
}

func TestPluginsInfo(t *testing.T) {
	path := writeConfig(t, nil)

	out, err := execute(t, "--config", path, "plugins", "info", "example")
	require.NoError(t, err)
	var info plugin.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "example", info.Name)
	assert.Contains(t, info.Commands, "calculate")

	_, err = execute(t, "--config", path, "plugins", "info", "ghost")
	require.Error(t, err)
	assert.Equal(t, plugin.KindPluginNotFound, plugin.KindOf(err))
}

func TestInvoke(t *testing.T) {
	path := writeConfig(t, nil)

	out, err := execute(t, "--config", path, "invoke", "example", "hello", "World")
	require.NoError(t, err)
	assert.Contains(t, out, "World")

	out, err = execute(t, "--config", path, "invoke", "example", "calculate", "-4", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "sum")

	_, err = execute(t, "--config", path, "invoke", "example", "nope")
	require.Error(t, err)
	assert.Equal(t, plugin.KindUnknownCommand, plugin.KindOf(err))

	_, err = execute(t, "--config", path, "invoke", "ghost", "hello")
	require.Error(t, err)
	assert.Equal(t, plugin.KindPluginNotFound, plugin.KindOf(err))
}

func TestInvokeJSON(t *testing.T) {
	path := writeConfig(t, nil)

	out, err := execute(t, "--config", path, "invoke", "--json", "example", "calculate", "6", "3")
	require.NoError(t, err)
	var res plugin.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.IsOk())
	results, ok := res.Value.Field("results")
	require.True(t, ok)
	sum, _ := results.Field("sum")
	n, _ := sum.Float()
	assert.Equal(t, 9.0, n)

	out, err = execute(t, "--config", path, "invoke", "--json", "example", "calculate", "x")
	require.Error(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, plugin.KindInvalidArguments, res.Kind())
}

func TestInvokeRequiresPluginAndCommand(t *testing.T) {
	path := writeConfig(t, nil)
	_, err := execute(t, "--config", path, "invoke", "example")
	require.Error(t, err)
}

func TestEventsTailRequiresDriver(t *testing.T) {
	path := writeConfig(t, nil)
	_, err := execute(t, "--config", path, "events", "tail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events.driver")
}

func TestNewHostWiresMemoryAndEvents(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"events": map[string]any{"driver": "memory", "buffer": 8},
	})
	cfg, err := config.Load(path)
	require.NoError(t, err)

	host, err := NewHost(context.Background(), cfg)
	require.NoError(t, err)
	defer host.Close()
	require.NotNil(t, host.Events)

	res := host.Manager.Invoke(context.Background(), "notes", "remember", []string{"k", "v"})
	require.True(t, res.IsOk(), "%v", res.Err)
	res = host.Manager.Invoke(context.Background(), "notes", "recall", []string{"k"})
	require.True(t, res.IsOk(), "%v", res.Err)
	assert.Contains(t, res.Value.String(), "v")

	assert.GreaterOrEqual(t, host.Metrics.Invocations("notes", "remember", "ok"), uint64(1))

	ctx, cancel := context.WithCancel(context.Background())
	var seen []string
	err = host.Events.Consume(ctx, 1, func(_ context.Context, ev events.Event) error {
		seen = append(seen, ev.Command)
		if len(seen) == 2 {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"remember", "recall"}, seen)
}
