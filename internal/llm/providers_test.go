package llm

import (
	"context"
	"testing"

	"AIrchitect-CLI/internal/config"
	"AIrchitect-CLI/pkg/plugin"
)

func TestBuildEchoProviders(t *testing.T) {
	caps, err := Build(config.AIConfig{
		Default: "local",
		Providers: []config.ProviderConfig{
			{Name: "local", Driver: "echo"},
			{Name: "scripted", Driver: "echo", Models: []string{"small", "large"}},
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if names := caps.ProviderNames(); len(names) != 2 || names[0] != "local" {
		t.Fatalf("unexpected providers: %v", names)
	}

	local := caps.Providers["local"]
	reply, err := local.Send(context.Background(), "hi", plugin.SendOptions{})
	if err != nil || reply != "[local] Response to: hi" {
		t.Fatalf("unexpected echo reply %q err=%v", reply, err)
	}
	if model, _ := plugin.DefaultModel(context.Background(), local); model != "default-model" {
		t.Fatalf("unexpected default model %q", model)
	}
	if model, _ := plugin.DefaultModel(context.Background(), caps.Providers["scripted"]); model != "small" {
		t.Fatalf("unexpected default model %q", model)
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	if _, err := Build(config.AIConfig{Providers: []config.ProviderConfig{{Name: "x", Driver: "claude-local"}}}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Build(config.AIConfig{Providers: []config.ProviderConfig{{Name: "o", Driver: "openai"}}}); err == nil {
		t.Fatalf("expected missing api key error")
	}
	if _, err := Build(config.AIConfig{Default: "ghost", Providers: []config.ProviderConfig{{Name: "a"}}}); err == nil {
		t.Fatalf("expected missing default error")
	}
}
