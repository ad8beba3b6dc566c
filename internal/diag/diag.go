package diag

import "errors"

// Code is a stable, machine-readable diagnostic identifier.
type Code string

const (
	CodeDuplicateRegistration Code = "duplicate_registration"
	CodeUnknownDependency     Code = "unknown_dependency"
	CodeCycleDetected         Code = "cycle_detected"

	// The three distinguishable flavors of the asynchronous-provider guard.
	CodeAsyncValue         Code = "async_provider_value"
	CodeAsyncFactory       Code = "async_provider_factory"
	CodeAsyncFactoryResult Code = "async_provider_factory_result"

	CodeStartFailed   Code = "aggregate_start_failure"
	CodeStopFailed    Code = "aggregate_stop_failure"
	CodeDestroyFailed Code = "aggregate_destroy_failure"

	CodeInvalidTransition Code = "invalid_transition"
	CodeHookTimeout       Code = "hook_timeout"
	CodeHookFailure       Code = "hook_failure"

	CodeQueueFull        Code = "scheduler_queue_full"
	CodeTaskTimeout      Code = "scheduler_task_timeout"
	CodeDeadlineExceeded Code = "scheduler_deadline_exceeded"
	CodeAborted          Code = "scheduler_aborted"
)

// Coder is implemented by every error type in this module that carries a
// stable diagnostic code.
type Coder interface {
	DiagCode() Code
}

// Error is a sentinel error with an attached diagnostic code. It is the
// building block for the package-level sentinels the engine exposes.
type Error struct {
	code Code
	msg  string
}

// Sentinel creates a code-carrying sentinel error.
func Sentinel(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// DiagCode returns the stable diagnostic code.
func (e *Error) DiagCode() Code { return e.code }

// CodeOf walks the wrap chain of err and returns the first diagnostic code it
// finds, or the empty code when err carries none.
func CodeOf(err error) Code {
	var c Coder
	if errors.As(err, &c) {
		return c.DiagCode()
	}
	return ""
}
