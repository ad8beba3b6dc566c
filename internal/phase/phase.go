// Package phase defines the per-component outcome records produced by phase
// execution and the aggregate error that bundles them for a top-level
// start/stop/destroy call.
package phase

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/ident"
)

// Phase names one lifecycle phase.
type Phase string

const (
	Create  Phase = "create"
	Start   Phase = "start"
	Stop    Phase = "stop"
	Destroy Phase = "destroy"
)

// ExecContext distinguishes a root-cause failure from one induced by
// rollback cleanup, so cleanup noise never masks the original problem.
type ExecContext string

const (
	ContextNormal   ExecContext = "normal"
	ContextRollback ExecContext = "rollback"
)

// Outcome records how one component fared in one phase. Outcomes are
// produced fresh on every invocation and discarded once surfaced.
type Outcome struct {
	ID       *ident.ID
	Phase    Phase
	OK       bool
	Duration time.Duration
	TimedOut bool
	Err      error
	Context  ExecContext
}

func (o Outcome) String() string {
	status := "ok"
	if !o.OK {
		status = "failed"
		if o.TimedOut {
			status = "timed out"
		}
	}
	return fmt.Sprintf("%s %s %s in %dms", o.ID, o.Phase, status, o.Duration.Milliseconds())
}

// AggregateError bundles one-or-more failed Outcomes from a single top-level
// phase call under a stable diagnostic code. It exposes both a raw-error
// view (Unwrap) and the structured per-component details (Failed).
type AggregateError struct {
	code     diag.Code
	phase    Phase
	outcomes []Outcome
}

// NewAggregate builds the aggregate for a phase from its failed outcomes.
func NewAggregate(code diag.Code, p Phase, outcomes []Outcome) *AggregateError {
	return &AggregateError{code: code, phase: p, outcomes: outcomes}
}

func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.outcomes))
	for _, o := range e.outcomes {
		tag := ""
		if o.Context == ContextRollback {
			tag = " [rollback]"
		}
		parts = append(parts, fmt.Sprintf("%s%s: %v", o.ID, tag, o.Err))
	}
	return fmt.Sprintf("%s phase failed for %d component(s): %s",
		e.phase, len(e.outcomes), strings.Join(parts, "; "))
}

// DiagCode implements diag.Coder.
func (e *AggregateError) DiagCode() diag.Code { return e.code }

// Phase reports which top-level call produced the aggregate.
func (e *AggregateError) Phase() Phase { return e.phase }

// Failed returns the structured per-component failure details.
func (e *AggregateError) Failed() []Outcome { return e.outcomes }

// RootCauses returns only the outcomes from the normal execution path,
// excluding rollback-induced failures.
func (e *AggregateError) RootCauses() []Outcome {
	var out []Outcome
	for _, o := range e.outcomes {
		if o.Context != ContextRollback {
			out = append(out, o)
		}
	}
	return out
}

// Unwrap exposes the raw underlying errors for errors.Is / errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.outcomes))
	for _, o := range e.outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
