package records

import (
	"context"
	"testing"

	"AIrchitect-CLI/pkg/plugin"
)

const manifest = `
plugins:
  records:
    config:
      records:
        - {id: 1, name: alpha, team: core}
        - {id: 2, name: beta, team: web}
        - '{"id": 3, "name": "gamma", "team": "core"}'
`

func newHost(t *testing.T, raw string) *plugin.Manager {
	t.Helper()
	cfg, err := plugin.ParseManagerConfig([]byte(raw))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	m, err := plugin.NewManager(t.TempDir(), plugin.WithManifest(cfg))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.Load(Name, New); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(m.Shutdown)
	return m
}

func TestRecordsFromManifest(t *testing.T) {
	m := newHost(t, manifest)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx := context.Background()

	if n, _ := m.Invoke(ctx, Name, "count", nil).Value.Float(); n != 3 {
		t.Fatalf("expected 3 records, got %v", n)
	}
	rec := m.Invoke(ctx, Name, "get", []string{"2"}).Value
	if name, _ := rec.Field("name"); name.String() != "gamma" {
		t.Fatalf("unexpected record %s", rec)
	}
	if kind := m.Invoke(ctx, Name, "get", []string{"7"}).Kind(); kind != plugin.KindInvalidArguments {
		t.Fatalf("expected INVALID_ARGUMENTS, got %s", kind)
	}
	if found := m.Invoke(ctx, Name, "find", []string{"team", "core"}).Value; found.Len() != 2 {
		t.Fatalf("expected 2 core records, got %s", found)
	}
	if found := m.Invoke(ctx, Name, "find", []string{"id", "2"}).Value; found.Len() != 1 {
		t.Fatalf("numeric fields should match their text form, got %s", found)
	}

	if res := m.Invoke(ctx, Name, "export", []string{"records.json"}); !res.IsOk() {
		t.Fatalf("export: %v", res.Err)
	}
	inst, _ := m.Registry().Lookup(Name)
	if _, found, _ := inst.Context().ReadDataFile("records.json"); !found {
		t.Fatalf("export file missing")
	}
	info, _ := inst.Info(context.Background())
	if n, _ := info.Extra["record_count"].Float(); n != 3 {
		t.Fatalf("unexpected info extra %+v", info.Extra)
	}
}

func TestEmptyConfig(t *testing.T) {
	m := newHost(t, "plugins: {}")
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := m.Invoke(context.Background(), Name, "list", nil).Value.String(); got != "[]" {
		t.Fatalf("expected empty list, got %s", got)
	}
}

func TestMalformedConfigFailsInitialization(t *testing.T) {
	m := newHost(t, `
plugins:
  records:
    config:
      records: "not a list"
`)
	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected initialization error")
	}
	inst, _ := m.Registry().Lookup(Name)
	if inst.State() != plugin.StateFailed {
		t.Fatalf("expected failed state, got %s", inst.State())
	}
	if kind := m.Invoke(context.Background(), Name, "count", nil).Kind(); kind != plugin.KindLifecycleError {
		t.Fatalf("expected LIFECYCLE_ERROR, got %s", kind)
	}
}
