package plugin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Plugin is the contract every extension satisfies. Execute must return
// typed errors (see InvalidArguments, ExecutionFailure) where it can;
// anything else is reported as an execution failure.
type Plugin interface {
	Name() string
	Version() string
	Commands() []string
	Execute(ctx context.Context, command string, args []string) (Value, error)
}

// Describer supplies a human readable description.
type Describer interface {
	Description() string
}

// Initializer runs one-time setup. Returning false marks the plugin failed.
// It may be called again and repeats its side effects.
type Initializer interface {
	Initialize(ctx context.Context) (bool, error)
}

// Cleaner releases transient resources. It must tolerate repeated calls
// and must not remove data files.
type Cleaner interface {
	Cleanup()
}

// InfoProvider adds plugin specific fields to Info.
type InfoProvider interface {
	Info() map[string]Value
}

// CapabilityRequester declares the host capabilities a plugin uses so they
// can be checked against its isolation policy at registration.
type CapabilityRequester interface {
	Capabilities() []Capability
}

// Factory constructs a plugin bound to its context.
type Factory func(*Context) (Plugin, error)

// HandlerFunc implements a single command.
type HandlerFunc func(ctx context.Context, args []string) (Value, error)

type route struct {
	usage string
	fn    HandlerFunc
}

// Router is an explicit command table matched by exact name.
type Router struct {
	plugin string
	order  []string
	routes map[string]route
}

// NewRouter creates an empty table for plugin.
func NewRouter(plugin string) *Router {
	return &Router{plugin: plugin, routes: make(map[string]route)}
}

// Handle registers fn under command. Registering a name twice panics.
func (r *Router) Handle(command, usage string, fn HandlerFunc) *Router {
	if _, exists := r.routes[command]; exists {
		panic(fmt.Sprintf("plugin %s: command %q registered twice", r.plugin, command))
	}
	r.routes[command] = route{usage: usage, fn: fn}
	r.order = append(r.order, command)
	return r
}

// Commands returns command names in registration order.
func (r *Router) Commands() []string {
	return append([]string(nil), r.order...)
}

// Usage returns the usage string for command.
func (r *Router) Usage(command string) (string, bool) {
	rt, ok := r.routes[command]
	return rt.usage, ok
}

// Execute dispatches command to its handler.
func (r *Router) Execute(ctx context.Context, command string, args []string) (Value, error) {
	rt, ok := r.routes[command]
	if !ok {
		return Value{}, UnknownCommand(r.plugin, command)
	}
	return rt.fn(ctx, args)
}

// ExactArgs checks arity against usage.
func ExactArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return InvalidArguments("expected %d argument(s), got %d; usage: %s", n, len(args), usage)
	}
	return nil
}

// MinArgs checks a lower bound on arity.
func MinArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return InvalidArguments("expected at least %d argument(s), got %d; usage: %s", n, len(args), usage)
	}
	return nil
}

// ParseNumber parses a numeric argument.
func ParseNumber(arg, usage string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, InvalidArguments("%q is not a number; usage: %s", arg, usage)
	}
	return f, nil
}
