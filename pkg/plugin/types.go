package plugin

import (
	"fmt"
	"regexp"
)

// MaxIdentityLength bounds plugin names so derived data paths stay bounded.
const MaxIdentityLength = 64

var identityPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateIdentity reports whether name is usable as a plugin identity.
// Only ASCII letters, digits, underscore and hyphen are accepted, so an
// identity can never contain a separator or be "." or "..".
func ValidateIdentity(name string) error {
	switch {
	case name == "":
		return InvalidIdentity(name, "name cannot be empty")
	case len(name) > MaxIdentityLength:
		return InvalidIdentity(name, fmt.Sprintf("name exceeds %d bytes", MaxIdentityLength))
	case !identityPattern.MatchString(name):
		return InvalidIdentity(name, "name may only contain letters, digits, '_' and '-'")
	}
	return nil
}

// Capability names a host service a plugin may be granted.
type Capability string

const (
	CapabilityAI     Capability = "ai"
	CapabilityMemory Capability = "memory"
	CapabilityAgent  Capability = "agent"
)

// State represents the lifecycle position of a plugin instance.
type State string

const (
	StateConstructed State = "constructed"
	StateInitialized State = "initialized"
	StateFailed      State = "failed"
	StateCleanedUp   State = "cleaned_up"
)

// Info is the descriptive record returned for a registered plugin.
type Info struct {
	Name         string           `json:"name"`
	Version      string           `json:"version"`
	Description  string           `json:"description"`
	Commands     []string         `json:"commands"`
	State        State            `json:"state"`
	Capabilities []Capability     `json:"capabilities,omitempty"`
	DataFiles    []string         `json:"data_files,omitempty"`
	Extra        map[string]Value `json:"extra,omitempty"`
}
