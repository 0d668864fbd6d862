package plugin

import (
	"fmt"
	"slices"
)

// IsolationPolicy governs which host capabilities a plugin may use. An
// empty allow list permits everything not denied.
type IsolationPolicy struct {
	AllowedCapabilities []Capability `yaml:"allowedCapabilities" json:"allowed_capabilities,omitempty"`
	DeniedCapabilities  []Capability `yaml:"deniedCapabilities" json:"denied_capabilities,omitempty"`
}

// Allows reports whether capability may be handed out under p.
func (p IsolationPolicy) Allows(capability Capability) bool {
	if slices.Contains(p.DeniedCapabilities, capability) {
		return false
	}
	return len(p.AllowedCapabilities) == 0 || slices.Contains(p.AllowedCapabilities, capability)
}

// Merge returns a new policy using values from other when not present.
func (p IsolationPolicy) Merge(other IsolationPolicy) IsolationPolicy {
	if len(p.AllowedCapabilities) == 0 {
		p.AllowedCapabilities = other.AllowedCapabilities
	}
	if len(p.DeniedCapabilities) == 0 {
		p.DeniedCapabilities = other.DeniedCapabilities
	}
	return p
}

// MergePolicies combines the default and plugin specific policies.
func MergePolicies(defaults IsolationPolicy, plugin *IsolationPolicy) IsolationPolicy {
	if plugin == nil {
		return defaults
	}
	return plugin.Merge(defaults)
}

// Validate checks the capabilities a plugin declares against the policy.
func (p IsolationPolicy) Validate(name string, requested []Capability) error {
	for _, capability := range requested {
		switch capability {
		case CapabilityAI, CapabilityMemory, CapabilityAgent:
		default:
			return LifecycleError(nil, "plugin %s requests unknown capability %q", name, capability)
		}
		if !p.Allows(capability) {
			return LifecycleError(nil, "plugin %s requests capability %s which its policy denies", name, capability)
		}
	}
	return nil
}

func requestedCapabilities(p Plugin) []Capability {
	if cr, ok := p.(CapabilityRequester); ok {
		return cr.Capabilities()
	}
	return nil
}

func (p IsolationPolicy) String() string {
	return fmt.Sprintf("allow=%v deny=%v", p.AllowedCapabilities, p.DeniedCapabilities)
}
