package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	xerrors "AIrchitect-CLI/internal/errors"
	"AIrchitect-CLI/pkg/logger"
)

// Invocation describes one dispatched command once it has finished.
// Argument values are never recorded.
type Invocation struct {
	ID       string
	Plugin   string
	Command  string
	ArgCount int
	Started  time.Time
	Duration time.Duration
	// Kind is empty for successful invocations.
	Kind    ErrorKind
	Message string
}

// Observer receives every finished invocation.
type Observer interface {
	ObserveInvocation(ctx context.Context, inv Invocation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, inv Invocation)

func (f ObserverFunc) ObserveInvocation(ctx context.Context, inv Invocation) { f(ctx, inv) }

// Dispatcher routes commands to registered plugins and converts every
// outcome, including panics and timeouts, into a Result.
type Dispatcher struct {
	registry  *Registry
	timeout   time.Duration
	observers []Observer
	log       *slog.Logger
	now       func() time.Time
}

// DispatchOption customises a Dispatcher.
type DispatchOption func(*Dispatcher)

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(d time.Duration) DispatchOption {
	return func(disp *Dispatcher) {
		if d >= 0 {
			disp.timeout = d
		}
	}
}

// WithObserver adds an invocation observer.
func WithObserver(o Observer) DispatchOption {
	return func(disp *Dispatcher) {
		if o != nil {
			disp.observers = append(disp.observers, o)
		}
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatchOption) *Dispatcher {
	d := &Dispatcher{registry: registry, log: logger.Named("plugin.dispatch"), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Registry returns the registry the dispatcher routes to.
func (d *Dispatcher) Registry() *Registry { return d.registry }

type outcome struct {
	value Value
	err   error
}

// Invoke runs command on the named plugin. It never panics and never
// returns an untyped error: every outcome is a Result.
func (d *Dispatcher) Invoke(ctx context.Context, name, command string, args []string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	inv := Invocation{ID: uuid.NewString(), Plugin: name, Command: command, ArgCount: len(args), Started: d.now()}

	var res Result
	inst, ok := d.registry.Lookup(name)
	if !ok {
		res = d.failure(name, command, "", PluginNotFound(name))
	} else {
		res = d.run(ctx, inst, command, args)
	}

	inv.Duration = d.now().Sub(inv.Started)
	if res.Err != nil {
		inv.Kind, inv.Message = res.Err.Kind, res.Err.Message
	}
	d.record(context.WithoutCancel(ctx), inv)
	return res
}

func (d *Dispatcher) run(ctx context.Context, inst *Instance, command string, args []string) Result {
	dataRoot := ""
	if inst.ctx != nil {
		dataRoot = inst.ctx.DataDir()
	}
	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := inst.acquire(runCtx); err != nil {
		return d.failure(inst.Name(), command, dataRoot, d.interrupted(err))
	}

	args = append([]string(nil), args...)
	done := make(chan outcome, 1)
	go func() {
		defer inst.release()
		v, err := inst.execute(runCtx, command, args)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && runCtx.Err() != nil && errors.Is(out.err, runCtx.Err()) {
			out.err = d.interrupted(runCtx.Err())
		}
		if out.err != nil {
			return d.failure(inst.Name(), command, dataRoot, out.err)
		}
		return Ok(out.value)
	case <-runCtx.Done():
		return d.failure(inst.Name(), command, dataRoot, d.interrupted(runCtx.Err()))
	}
}

func (d *Dispatcher) interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		if d.timeout > 0 {
			return ExecutionFailure(nil, "command timed out after %s", d.timeout)
		}
		return ExecutionFailure(nil, "command deadline exceeded")
	}
	return ExecutionFailure(nil, "invocation cancelled")
}

func (d *Dispatcher) failure(plugin, command, dataRoot string, err error) Result {
	kind := KindOf(err)
	msg := err.Error()
	if e, ok := xerrors.From(err); ok && IsKind(e.Code()) {
		msg = e.Message()
		if cause := e.Unwrap(); cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, cause)
		}
	}
	if xerrors.ShouldAlert(err) {
		logger.Audit().Warn("plugin_alert",
			slog.String("plugin", plugin),
			slog.String("command", command),
			slog.String("kind", string(kind)),
			slog.String("severity", string(xerrors.SeverityOf(err))),
		)
	}
	return Fail(kind, plugin, command, sanitizeMessage(msg, dataRoot))
}

func (d *Dispatcher) record(ctx context.Context, inv Invocation) {
	attrs := []any{
		slog.String("invocation_id", inv.ID),
		slog.String("plugin", inv.Plugin),
		slog.String("command", inv.Command),
		slog.Int("arg_count", inv.ArgCount),
		slog.Int64("duration_ms", inv.Duration.Milliseconds()),
	}
	if inv.Kind != "" {
		attrs = append(attrs, slog.String("outcome", string(inv.Kind)))
	} else {
		attrs = append(attrs, slog.String("outcome", "ok"))
	}
	logger.Audit().Info("plugin_invocation", attrs...)

	for _, o := range d.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("invocation observer panicked", slog.Any("panic", r))
				}
			}()
			o.ObserveInvocation(ctx, inv)
		}()
	}
}
