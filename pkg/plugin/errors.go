package plugin

import (
	"errors"
	"fmt"

	xerrors "AIrchitect-CLI/internal/errors"
)

// ErrorKind classifies every failure a plugin invocation can report.
type ErrorKind = xerrors.Code

const (
	KindInvalidIdentity       ErrorKind = "INVALID_IDENTITY"
	KindPathViolation         ErrorKind = "PATH_VIOLATION"
	KindDuplicateIdentity     ErrorKind = "DUPLICATE_IDENTITY"
	KindPluginNotFound        ErrorKind = "PLUGIN_NOT_FOUND"
	KindUnknownCommand        ErrorKind = "UNKNOWN_COMMAND"
	KindInvalidArguments      ErrorKind = "INVALID_ARGUMENTS"
	KindExecutionFailure      ErrorKind = "EXECUTION_FAILURE"
	KindIOError               ErrorKind = "IO_ERROR"
	KindLifecycleError        ErrorKind = "LIFECYCLE_ERROR"
	KindCapabilityUnavailable ErrorKind = "CAPABILITY_UNAVAILABLE"
)

var kinds = map[ErrorKind]xerrors.Attributes{
	KindInvalidIdentity:       {Message: "invalid plugin identity", Severity: xerrors.SeverityInfo, Status: 400},
	KindPathViolation:         {Message: "path escapes plugin data directory", Severity: xerrors.SeverityWarning, Alert: true, Status: 403},
	KindDuplicateIdentity:     {Message: "plugin already registered", Severity: xerrors.SeverityWarning, Status: 409},
	KindPluginNotFound:        {Message: "plugin not found", Severity: xerrors.SeverityInfo, Status: 404},
	KindUnknownCommand:        {Message: "unknown command", Severity: xerrors.SeverityInfo, Status: 404},
	KindInvalidArguments:      {Message: "invalid arguments", Severity: xerrors.SeverityInfo, Status: 400},
	KindExecutionFailure:      {Message: "command failed", Severity: xerrors.SeverityWarning, Status: 500},
	KindIOError:               {Message: "data file i/o failed", Severity: xerrors.SeverityCritical, Alert: true, Retryable: true, Status: 500},
	KindLifecycleError:        {Message: "plugin not ready", Severity: xerrors.SeverityWarning, Status: 409},
	KindCapabilityUnavailable: {Message: "capability unavailable", Severity: xerrors.SeverityInfo, Status: 403},
}

func init() {
	for kind, attr := range kinds {
		xerrors.Register(kind, attr)
	}
}

// IsKind reports whether kind belongs to the plugin error taxonomy.
func IsKind(kind ErrorKind) bool {
	_, ok := kinds[kind]
	return ok
}

// KindOf classifies err. Errors outside the taxonomy are execution failures.
func KindOf(err error) ErrorKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	code := xerrors.CodeOf(err)
	if IsKind(code) {
		return code
	}
	if code == xerrors.CodeInvalidArgument {
		return KindInvalidArguments
	}
	return KindExecutionFailure
}

// InvalidIdentity rejects a plugin name.
func InvalidIdentity(name, reason string) error {
	return xerrors.New(KindInvalidIdentity, fmt.Sprintf("plugin name %q: %s", name, reason))
}

// PathViolation rejects a data filename for plugin.
func PathViolation(plugin, filename string) error {
	return xerrors.New(KindPathViolation, fmt.Sprintf("filename %q is not a flat name inside the data directory of %s", filename, plugin),
		xerrors.WithMetadata("plugin", plugin))
}

// DuplicateIdentity reports a second registration of name.
func DuplicateIdentity(name string) error {
	return xerrors.New(KindDuplicateIdentity, fmt.Sprintf("plugin %s already registered", name))
}

// PluginNotFound reports a lookup miss.
func PluginNotFound(name string) error {
	return xerrors.New(KindPluginNotFound, fmt.Sprintf("plugin %q is not registered", name))
}

// UnknownCommand reports a command missing from the plugin's table.
func UnknownCommand(plugin, command string) error {
	return xerrors.New(KindUnknownCommand, fmt.Sprintf("unknown command %q for plugin %s", command, plugin))
}

// InvalidArguments reports bad arity or argument types; the message should
// name the expected shape.
func InvalidArguments(format string, args ...any) error {
	return xerrors.New(KindInvalidArguments, fmt.Sprintf(format, args...))
}

// ExecutionFailure reports a failure inside a command. cause may be nil.
func ExecutionFailure(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return xerrors.New(KindExecutionFailure, msg)
	}
	return xerrors.Wrap(KindExecutionFailure, cause, msg)
}

// IOError reports a filesystem failure inside a data directory.
func IOError(cause error, format string, args ...any) error {
	return xerrors.Wrap(KindIOError, cause, fmt.Sprintf(format, args...))
}

// LifecycleError reports an operation attempted in the wrong state.
func LifecycleError(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return xerrors.New(KindLifecycleError, msg)
	}
	return xerrors.Wrap(KindLifecycleError, cause, msg)
}

// CapabilityUnavailable reports a host service that is denied or missing.
func CapabilityUnavailable(plugin string, what string) error {
	return xerrors.New(KindCapabilityUnavailable, fmt.Sprintf("%s is not available to plugin %s", what, plugin))
}
