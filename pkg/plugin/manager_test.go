package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	xerrors "AIrchitect-CLI/internal/errors"
)

const manifestYAML = `
defaults:
  deniedCapabilities: [agent]
plugins:
  fake:
    config:
      greeting: hello
      retries: 3
  hungry:
    policy:
      allowedCapabilities: [memory]
  off:
    enabled: false
`

type hungryPlugin struct{ bare }

func (hungryPlugin) Capabilities() []Capability { return []Capability{CapabilityAI} }

func TestManifestDrivesLoading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	if err := os.WriteFile(path, []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	cfg, err := LoadManagerConfig(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	m := newTestManager(t, WithManifest(cfg))

	fp := loadFake(t, m, "fake")
	if fp.ctx.GetConfig("greeting", nil) != "hello" || fp.ctx.GetConfig("retries", nil) != 3 {
		t.Fatalf("manifest config not seeded: %v", fp.ctx.ConfigKeys())
	}
	if _, err := fp.ctx.NewAgent("a", nil); xerrors.CodeOf(err) != KindCapabilityUnavailable {
		t.Fatalf("default policy should deny agents, got %v", err)
	}

	loaded, err := m.Load("off", func(pctx *Context) (Plugin, error) { return bare{name: "off"}, nil })
	if err != nil || loaded {
		t.Fatalf("disabled plugin loaded=%v err=%v", loaded, err)
	}

	_, err = m.Load("hungry", func(pctx *Context) (Plugin, error) { return hungryPlugin{bare{name: "hungry"}}, nil })
	if xerrors.CodeOf(err) != KindLifecycleError {
		t.Fatalf("capability outside policy should be refused, got %v", err)
	}
	if names := m.Registry().List(); len(names) != 1 || names[0] != "fake" {
		t.Fatalf("unexpected registry contents: %v", names)
	}
}

func TestManifestValidation(t *testing.T) {
	if _, err := ParseManagerConfig([]byte("plugins:\n  ../bad:\n    enabled: true\n")); err == nil {
		t.Fatalf("manifest with invalid identity accepted")
	}
	if _, err := ParseManagerConfig([]byte("defaults:\n  allowedCapabilities: [root]\n")); err == nil {
		t.Fatalf("manifest with unknown capability accepted")
	}
}

func TestRegistryRules(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("alpha", bare{name: "alpha"}); err != nil {
		t.Fatalf("register alpha: %v", err)
	}
	if err := reg.Register("beta", bare{name: "beta"}); err != nil {
		t.Fatalf("register beta: %v", err)
	}
	if err := reg.Register("alpha", bare{name: "alpha"}); xerrors.CodeOf(err) != KindDuplicateIdentity {
		t.Fatalf("expected DUPLICATE_IDENTITY, got %v", err)
	}
	if err := reg.Register("gamma", bare{name: "delta"}); xerrors.CodeOf(err) != KindInvalidIdentity {
		t.Fatalf("expected INVALID_IDENTITY for mismatched name, got %v", err)
	}
	if err := reg.Register("../x", bare{name: "../x"}); xerrors.CodeOf(err) != KindInvalidIdentity {
		t.Fatalf("expected INVALID_IDENTITY, got %v", err)
	}

	if got := reg.List(); len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("expected registration order, got %v", got)
	}
	if !reg.Unregister("alpha") || reg.Unregister("alpha") {
		t.Fatalf("unregister should report presence exactly once")
	}
	if _, ok := reg.Lookup("alpha"); ok || reg.Len() != 1 {
		t.Fatalf("alpha still registered")
	}
	if err := reg.Initialize(context.Background(), "alpha"); xerrors.CodeOf(err) != KindPluginNotFound {
		t.Fatalf("expected PLUGIN_NOT_FOUND, got %v", err)
	}
}

func TestFactoryFailuresAreContained(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Load("boom", func(*Context) (Plugin, error) { panic("constructor bug") })
	if xerrors.CodeOf(err) != KindLifecycleError {
		t.Fatalf("expected LIFECYCLE_ERROR, got %v", err)
	}
	_, err = m.Load("nil", func(*Context) (Plugin, error) { return nil, nil })
	if xerrors.CodeOf(err) != KindLifecycleError {
		t.Fatalf("expected LIFECYCLE_ERROR for nil plugin, got %v", err)
	}
	if m.Registry().Len() != 0 {
		t.Fatalf("failed loads must not register anything")
	}
}
