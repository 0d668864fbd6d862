package plugin

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManagerConfig is the plugin manifest: default policy plus per-plugin
// overrides.
type ManagerConfig struct {
	Defaults IsolationPolicy         `yaml:"defaults"`
	Plugins  map[string]PluginConfig `yaml:"plugins"`
}

// PluginConfig is the manifest block for one plugin.
type PluginConfig struct {
	// Enabled defaults to true when omitted.
	Enabled *bool            `yaml:"enabled"`
	Config  map[string]any   `yaml:"config"`
	Policy  *IsolationPolicy `yaml:"policy"`
}

// IsEnabled reports whether the plugin should be loaded.
func (c PluginConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// LoadManagerConfig reads a YAML manifest.
func LoadManagerConfig(path string) (ManagerConfig, error) {
	var cfg ManagerConfig
	if path == "" {
		return cfg, errors.New("manifest path cannot be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read plugin manifest: %w", err)
	}
	return ParseManagerConfig(raw)
}

// ParseManagerConfig decodes and validates a YAML manifest.
func ParseManagerConfig(raw []byte) (ManagerConfig, error) {
	var cfg ManagerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal plugin manifest: %w", err)
	}
	if cfg.Plugins == nil {
		cfg.Plugins = map[string]PluginConfig{}
	}
	return cfg, cfg.Validate()
}

// Validate ensures the manifest is internally consistent.
func (c ManagerConfig) Validate() error {
	if err := checkCapabilityNames("defaults", c.Defaults); err != nil {
		return err
	}
	for name, pc := range c.Plugins {
		if err := ValidateIdentity(name); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		if pc.Policy != nil {
			if err := checkCapabilityNames(name, *pc.Policy); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkCapabilityNames(scope string, p IsolationPolicy) error {
	for _, list := range [][]Capability{p.AllowedCapabilities, p.DeniedCapabilities} {
		for _, capability := range list {
			switch capability {
			case CapabilityAI, CapabilityMemory, CapabilityAgent:
			default:
				return fmt.Errorf("manifest %s: unknown capability %q", scope, capability)
			}
		}
	}
	return nil
}

// For returns the manifest block for name with defaults applied.
func (c ManagerConfig) For(name string) (PluginConfig, IsolationPolicy) {
	pc := c.Plugins[name]
	return pc, MergePolicies(c.Defaults, pc.Policy)
}
