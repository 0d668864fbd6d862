package pythonbridge

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"AIrchitect-CLI/pkg/plugin"
)

// newShellBridge points the bridge at a shell script in place of python.
func newShellBridge(t *testing.T, script string) *Client {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bridge.sh"), []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	client, err := NewClient(Config{Name: "local", PythonExec: sh, ScriptPath: "bridge.sh", WorkingDir: dir})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSendReadsReply(t *testing.T) {
	client := newShellBridge(t, "cat > request.json\necho '{\"reply\":\"from script\",\"models\":[\"m1\"]}'\n")

	reply, err := client.Send(context.Background(), "hello", plugin.SendOptions{MaxTokens: 10})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "from script" {
		t.Fatalf("unexpected reply %q", reply)
	}
	raw, err := os.ReadFile(filepath.Join(client.workingDir, "request.json"))
	if err != nil {
		t.Fatalf("read captured request: %v", err)
	}
	if !strings.Contains(string(raw), `"prompt":"hello"`) || !strings.Contains(string(raw), `"max_tokens":10`) {
		t.Fatalf("unexpected request payload: %s", raw)
	}

	models, err := client.ListModels(context.Background())
	if err != nil || len(models) != 1 || models[0] != "m1" {
		t.Fatalf("list models: %v %v", models, err)
	}
}

func TestScriptFailureIsReported(t *testing.T) {
	client := newShellBridge(t, "echo 'model crashed' >&2\nexit 3\n")
	_, err := client.Send(context.Background(), "hello", plugin.SendOptions{})
	if err == nil || !strings.Contains(err.Error(), "model crashed") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestResolveScriptPath(t *testing.T) {
	if got := ResolveScriptPath("/srv", "bridge.py"); got != filepath.Join("/srv", "bridge.py") {
		t.Fatalf("unexpected path %s", got)
	}
	if got := ResolveScriptPath("/srv", "/opt/bridge.py"); got != "/opt/bridge.py" {
		t.Fatalf("absolute paths must be kept, got %s", got)
	}
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error without script path")
	}
}
