package engine

import (
	"fmt"
	"time"
)

// ErrorKind classifies a failed execution.
type ErrorKind string

const (
	// ErrRuntimeNotFound: no installed toolchain satisfies the language's
	// descriptor.
	ErrRuntimeNotFound ErrorKind = "runtime_not_found"
	// ErrRuntimeProbeTimeout: every version probe for the language timed out.
	ErrRuntimeProbeTimeout ErrorKind = "runtime_probe_timeout"
	// ErrCompile: the template failed to build; it never ran.
	ErrCompile ErrorKind = "compile_error"
	// ErrProtocolViolation: the process exited cleanly without a parseable
	// terminal marker, leaving the outcome ambiguous.
	ErrProtocolViolation ErrorKind = "protocol_violation"
	// ErrProcessCrashed: non-zero exit with no terminal marker.
	ErrProcessCrashed ErrorKind = "process_crashed"
	// ErrTimeout: the execution exceeded its wall-clock budget and was
	// terminated.
	ErrTimeout ErrorKind = "timeout_exceeded"
	// ErrSandboxViolation: a sandbox guard tripped (disallowed import) or a
	// requested restriction could not be honored.
	ErrSandboxViolation ErrorKind = "sandbox_violation"
	// ErrSerialization: input or output not representable in the wire
	// format.
	ErrSerialization ErrorKind = "serialization_error"
	// ErrTemplate: user code reported failure through the error call-out.
	ErrTemplate ErrorKind = "template_error"
)

// Failure describes a failed execution. Run-time failures carry the captured
// stderr tail and exit code for diagnosis.
type Failure struct {
	Kind       ErrorKind
	Message    string
	StderrTail string
	ExitCode   int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is the single terminal outcome of one execution request. Exactly
// one Result is produced per request; it is immutable and owned by the
// caller.
type Result struct {
	// ID uniquely identifies the execution.
	ID string

	// Data is the decoded success payload. Nil on failure (and for a
	// template that legitimately reported null).
	Data any

	// Err is nil on success.
	Err *Failure

	// Stdout is the template's diagnostic stdout with the marker line
	// removed, truncated at the capture cap.
	Stdout string

	// Duration covers build and run.
	Duration time.Duration
}

// Ok reports whether the template reported success.
func (r Result) Ok() bool { return r.Err == nil }
