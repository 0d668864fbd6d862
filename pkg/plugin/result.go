package plugin

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of a dispatched command: either a Value or a
// Failure, never both.
type Result struct {
	Value Value
	Err   *Failure
}

// Failure is the typed error half of a Result.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Plugin  string    `json:"plugin,omitempty"`
	Command string    `json:"command,omitempty"`
}

func (f *Failure) Error() string {
	switch {
	case f.Plugin != "" && f.Command != "":
		return fmt.Sprintf("%s (%s %s): %s", f.Kind, f.Plugin, f.Command, f.Message)
	case f.Plugin != "":
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.Plugin, f.Message)
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
}

// Ok builds a successful result.
func Ok(v Value) Result { return Result{Value: v} }

// Fail builds a failed result.
func Fail(kind ErrorKind, plugin, command, message string) Result {
	return Result{Err: &Failure{Kind: kind, Message: message, Plugin: plugin, Command: command}}
}

// IsOk reports whether the command succeeded.
func (r Result) IsOk() bool { return r.Err == nil }

// Error returns the failure as an error, or nil.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// Kind returns the failure kind, or "" on success.
func (r Result) Kind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind
}

type resultJSON struct {
	OK    bool     `json:"ok"`
	Value *Value   `json:"value,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(resultJSON{Error: r.Err})
	}
	v := r.Value
	return json.Marshal(resultJSON{OK: true, Value: &v})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.OK {
		if raw.Error == nil {
			raw.Error = &Failure{Kind: KindExecutionFailure, Message: "missing error payload"}
		}
		*r = Result{Err: raw.Error}
		return nil
	}
	*r = Result{}
	if raw.Value != nil {
		r.Value = *raw.Value
	}
	return nil
}
