package plugin

import (
	"context"
	"fmt"
	"slices"
	"sort"
)

// SendOptions tunes a single prompt. Zero values leave the provider defaults.
type SendOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// AIProvider is the narrow interface the host exposes for language models.
type AIProvider interface {
	Name() string
	Send(ctx context.Context, prompt string, opts SendOptions) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// DefaultModeler is implemented by providers with a preferred model.
type DefaultModeler interface {
	DefaultModel() string
}

// DefaultModel returns the provider's preferred model, falling back to the
// first listed model.
func DefaultModel(ctx context.Context, p AIProvider) (string, error) {
	if dm, ok := p.(DefaultModeler); ok {
		if m := dm.DefaultModel(); m != "" {
			return m, nil
		}
	}
	models, err := p.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", nil
	}
	return models[0], nil
}

// Memory is the project memory store shared by plugins.
type Memory interface {
	Store(ctx context.Context, key string, value any) (bool, error)
	Retrieve(ctx context.Context, key string) (any, bool, error)
	Search(ctx context.Context, query string) ([]string, error)
}

// Capabilities bundles the host services handed to plugin contexts.
type Capabilities struct {
	Providers       map[string]AIProvider
	DefaultProvider string
	Memory          Memory
}

// ProviderNames returns the configured provider names, sorted.
func (c Capabilities) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Agent is a named worker that turns tasks into prompts for an AI provider.
type Agent struct {
	name         string
	capabilities []string
	provider     AIProvider
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Capabilities returns the declared agent skills.
func (a *Agent) Capabilities() []string { return slices.Clone(a.capabilities) }

// ExecuteTask runs task. Without a provider the agent only acknowledges it.
func (a *Agent) ExecuteTask(ctx context.Context, task string) (string, error) {
	if a.provider == nil {
		return fmt.Sprintf("Agent %s executed task: %s", a.name, task), nil
	}
	prompt := fmt.Sprintf("You are %s, an agent with capabilities %v.\nTask: %s", a.name, a.capabilities, task)
	return a.provider.Send(ctx, prompt, SendOptions{})
}

// Info describes the agent.
func (a *Agent) Info() Value {
	provider := Null()
	if a.provider != nil {
		provider = String(a.provider.Name())
	}
	return Map(map[string]Value{
		"name":         String(a.name),
		"capabilities": Strings(a.capabilities),
		"provider":     provider,
	})
}
