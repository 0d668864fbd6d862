package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"AIrchitect-CLI/pkg/logger"
)

// Manager assembles the host side of the plugin system: it builds a
// Context for every plugin, registers it and owns the dispatcher.
type Manager struct {
	dataDir     string
	maxFileSize int64
	caps        Capabilities
	manifest    ManagerConfig
	dispatch    []DispatchOption

	registry   *Registry
	dispatcher *Dispatcher
	log        *slog.Logger
}

// Option modifies the behaviour of a Manager.
type Option func(*Manager)

// WithManifest applies per-plugin configuration and policies.
func WithManifest(cfg ManagerConfig) Option {
	return func(m *Manager) { m.manifest = cfg }
}

// WithHostCapabilities sets the services handed to every plugin context.
func WithHostCapabilities(caps Capabilities) Option {
	return func(m *Manager) { m.caps = caps }
}

// WithFileSizeLimit bounds data files for every plugin.
func WithFileSizeLimit(n int64) Option {
	return func(m *Manager) { m.maxFileSize = n }
}

// WithDispatchOptions forwards options to the dispatcher.
func WithDispatchOptions(opts ...DispatchOption) Option {
	return func(m *Manager) { m.dispatch = append(m.dispatch, opts...) }
}

// NewManager creates a manager storing plugin data below dataDir.
func NewManager(dataDir string, opts ...Option) (*Manager, error) {
	if dataDir == "" {
		return nil, InvalidArguments("host data directory cannot be empty")
	}
	m := &Manager{
		dataDir:  dataDir,
		registry: NewRegistry(),
		log:      logger.Named("plugin.manager"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if err := m.manifest.Validate(); err != nil {
		return nil, err
	}
	m.dispatcher = NewDispatcher(m.registry, m.dispatch...)
	return m, nil
}

// Registry returns the plugin registry.
func (m *Manager) Registry() *Registry { return m.registry }

// Dispatcher returns the command dispatcher.
func (m *Manager) Dispatcher() *Dispatcher { return m.dispatcher }

// Load builds a context for name, constructs the plugin through factory
// and registers it. A plugin disabled in the manifest is skipped and
// reported with loaded=false.
func (m *Manager) Load(name string, factory Factory) (loaded bool, err error) {
	if factory == nil {
		return false, InvalidArguments("factory for plugin %s cannot be nil", name)
	}
	pc, policy := m.manifest.For(name)
	if !pc.IsEnabled() {
		m.log.Info("plugin disabled by manifest", slog.String("plugin", name))
		return false, nil
	}

	pctx, err := NewContext(name, m.dataDir,
		WithConfig(pc.Config),
		WithCapabilities(m.caps),
		WithPolicy(policy),
		WithMaxFileSize(m.maxFileSize),
	)
	if err != nil {
		return false, err
	}
	p, err := constructPlugin(factory, pctx)
	if err != nil {
		return false, LifecycleError(err, "construct plugin %s", name)
	}
	if p == nil {
		return false, LifecycleError(nil, "factory for plugin %s returned nil", name)
	}
	if err := policy.Validate(name, requestedCapabilities(p)); err != nil {
		return false, err
	}
	if _, err := m.registry.add(name, p, pctx); err != nil {
		return false, err
	}
	m.log.Debug("plugin loaded", slog.String("plugin", name), slog.String("policy", policy.String()))
	return true, nil
}

func constructPlugin(factory Factory, pctx *Context) (p Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("factory panicked: %v", r)
		}
	}()
	return factory(pctx)
}

// Start initializes every loaded plugin. Failures are logged and joined;
// healthy plugins remain usable.
func (m *Manager) Start(ctx context.Context) error {
	err := m.registry.InitializeAll(ctx)
	if err != nil {
		m.log.Warn("some plugins failed to initialize", slog.Any("error", err))
	}
	return err
}

// Invoke dispatches a command.
func (m *Manager) Invoke(ctx context.Context, name, command string, args []string) Result {
	return m.dispatcher.Invoke(ctx, name, command, args)
}

// Shutdown cleans up every plugin.
func (m *Manager) Shutdown() {
	m.registry.CleanupAll()
}
