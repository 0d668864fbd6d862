package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"AIrchitect-CLI/pkg/logger"
)

// cleanupWait bounds how long Cleanup waits for a command that still holds
// the instance lock, e.g. one that outlived its dispatch timeout.
var cleanupWait = 5 * time.Second

// Instance wraps a registered plugin with its lifecycle state. Calls into
// the plugin are serialised per instance.
type Instance struct {
	plugin Plugin
	ctx    *Context
	log    *slog.Logger

	// sem is a one-slot lock so waiters can give up when their context ends.
	sem chan struct{}

	stateMu sync.RWMutex
	state   State
}

func newInstance(p Plugin, pctx *Context, log *slog.Logger) *Instance {
	return &Instance{
		plugin: p,
		ctx:    pctx,
		log:    log.With(slog.String("plugin", p.Name())),
		sem:    make(chan struct{}, 1),
		state:  StateConstructed,
	}
}

// Name returns the plugin identity.
func (i *Instance) Name() string { return i.plugin.Name() }

// Plugin returns the wrapped plugin.
func (i *Instance) Plugin() Plugin { return i.plugin }

// Context returns the plugin's context, nil for plugins registered without one.
func (i *Instance) Context() *Context { return i.ctx }

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.stateMu.RLock()
	defer i.stateMu.RUnlock()
	return i.state
}

func (i *Instance) setState(s State) {
	i.stateMu.Lock()
	i.state = s
	i.stateMu.Unlock()
}

func (i *Instance) acquire(ctx context.Context) error {
	select {
	case i.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Instance) release() { <-i.sem }

// Description returns the plugin description or "".
func (i *Instance) Description() string {
	if d, ok := i.plugin.(Describer); ok {
		return d.Description()
	}
	return ""
}

// Info assembles the descriptive record of the plugin.
func (i *Instance) Info(ctx context.Context) (Info, error) {
	if err := i.acquire(ctx); err != nil {
		return Info{}, err
	}
	defer i.release()

	info := Info{
		Name:         i.plugin.Name(),
		Version:      i.plugin.Version(),
		Description:  i.Description(),
		Commands:     i.plugin.Commands(),
		State:        i.State(),
		Capabilities: requestedCapabilities(i.plugin),
	}
	if i.ctx != nil {
		files, err := i.ctx.ListDataFiles()
		if err != nil {
			return Info{}, err
		}
		info.DataFiles = files
	}
	if ip, ok := i.plugin.(InfoProvider); ok {
		extra, err := i.callInfo(ip)
		if err != nil {
			return Info{}, err
		}
		info.Extra = extra
	}
	return info, nil
}

func (i *Instance) callInfo(ip InfoProvider) (extra map[string]Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ExecutionFailure(nil, "plugin %s panicked while describing itself: %v", i.Name(), r)
		}
	}()
	return ip.Info(), nil
}

// Initialize runs the plugin's setup. It may be repeated; each call reruns
// the plugin's side effects and a failed plugin can be retried.
func (i *Instance) Initialize(ctx context.Context) error {
	if err := i.acquire(ctx); err != nil {
		return LifecycleError(err, "initialize plugin %s", i.Name())
	}
	defer i.release()

	ok, err := i.callInitialize(ctx)
	switch {
	case err != nil:
		i.setState(StateFailed)
		i.log.Warn("plugin initialization failed", slog.Any("error", err))
		return LifecycleError(err, "initialize plugin %s", i.Name())
	case !ok:
		i.setState(StateFailed)
		i.log.Warn("plugin initialization declined")
		return LifecycleError(nil, "plugin %s declined to initialize", i.Name())
	}
	i.setState(StateInitialized)
	i.log.Debug("plugin initialized")
	return nil
}

func (i *Instance) callInitialize(ctx context.Context) (ok bool, err error) {
	initializer, has := i.plugin.(Initializer)
	if !has {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("panic: %v", r)
		}
	}()
	return initializer.Initialize(ctx)
}

// Cleanup releases the plugin's transient state. It never fails, can be
// called any number of times and leaves data files in place.
// If a command is still running after cleanupWait, the plugin's hook is
// skipped and the instance is marked cleaned up anyway.
func (i *Instance) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupWait)
	defer cancel()
	if err := i.acquire(ctx); err != nil {
		i.setState(StateCleanedUp)
		i.log.Warn("plugin still busy, cleanup hook skipped", slog.Duration("waited", cleanupWait))
		return
	}
	defer i.release()

	if c, ok := i.plugin.(Cleaner); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					i.log.Error("plugin cleanup panicked", slog.Any("panic", r))
				}
			}()
			c.Cleanup()
		}()
	}
	i.setState(StateCleanedUp)
	i.log.Debug("plugin cleaned up")
}

// execute runs command while the caller holds the instance lock.
func (i *Instance) execute(ctx context.Context, command string, args []string) (v Value, err error) {
	if state := i.State(); state != StateInitialized {
		return Value{}, LifecycleError(nil, "plugin %s is %s, not initialized", i.Name(), state)
	}
	defer func() {
		if r := recover(); r != nil {
			i.log.Error("plugin command panicked", slog.String("command", command), slog.Any("panic", r))
			v, err = Value{}, ExecutionFailure(nil, "command %s panicked: %v", command, r)
		}
	}()
	return i.plugin.Execute(ctx, command, args)
}

// Registry maps plugin identities to live instances.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*Instance
	order []string
	log   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Instance), log: logger.Named("plugin.registry")}
}

// Register adds p under name. The name must be a valid identity equal to
// p.Name(); an existing registration is never replaced.
func (r *Registry) Register(name string, p Plugin) error {
	_, err := r.add(name, p, nil)
	return err
}

func (r *Registry) add(name string, p Plugin, pctx *Context) (*Instance, error) {
	if p == nil {
		return nil, InvalidArguments("plugin implementation cannot be nil")
	}
	if err := ValidateIdentity(name); err != nil {
		return nil, err
	}
	if p.Name() != name {
		return nil, InvalidIdentity(name, fmt.Sprintf("does not match plugin name %q", p.Name()))
	}
	if pctx != nil && pctx.Name() != name {
		return nil, InvalidIdentity(name, fmt.Sprintf("does not match context name %q", pctx.Name()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[name]; exists {
		return nil, DuplicateIdentity(name)
	}
	inst := newInstance(p, pctx, r.log)
	r.items[name] = inst
	r.order = append(r.order, name)
	r.log.Info("plugin registered", slog.String("plugin", name), slog.String("version", p.Version()))
	return inst, nil
}

// Lookup returns the instance registered under name.
func (r *Registry) Lookup(name string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.items[name]
	return inst, ok
}

// List returns registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Unregister cleans up and removes name. It reports whether name was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	inst, ok := r.items[name]
	if ok {
		delete(r.items, name)
		for idx, n := range r.order {
			if n == name {
				r.order = append(r.order[:idx], r.order[idx+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	inst.Cleanup()
	r.log.Info("plugin unregistered", slog.String("plugin", name))
	return true
}

// Initialize initializes a single plugin.
func (r *Registry) Initialize(ctx context.Context, name string) error {
	inst, ok := r.Lookup(name)
	if !ok {
		return PluginNotFound(name)
	}
	return inst.Initialize(ctx)
}

// InitializeAll initializes every plugin in registration order, continuing
// past failures. The returned error joins all failures.
func (r *Registry) InitializeAll(ctx context.Context) error {
	var errs []error
	for _, name := range r.List() {
		if err := r.Initialize(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CleanupAll cleans up every plugin in reverse registration order.
func (r *Registry) CleanupAll() {
	names := r.List()
	for idx := len(names) - 1; idx >= 0; idx-- {
		if inst, ok := r.Lookup(names[idx]); ok {
			inst.Cleanup()
		}
	}
}
