package lifecycle

import (
	"fmt"

	"github.com/vk/stagehand/internal/diag"
)

// State is the lifecycle position of a single component.
type State string

const (
	StateCreated   State = "created"
	StateStarted   State = "started"
	StateStopped   State = "stopped"
	StateDestroyed State = "destroyed"
)

// legalEdge reports whether from → to is an allowed transition. StateCreated
// → StateCreated covers the one-time creation hook, which runs without
// leaving the created state. StateDestroyed is terminal.
func legalEdge(from, to State) bool {
	switch from {
	case StateCreated:
		return to == StateCreated || to == StateStarted || to == StateDestroyed
	case StateStarted:
		return to == StateStopped || to == StateDestroyed
	case StateStopped:
		return to == StateStarted || to == StateDestroyed
	default:
		return false
	}
}

// InvalidTransitionError names the attempted edge of an illegal lifecycle
// call. The machine's state is unchanged when this is returned.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition: %s -> %s", e.From, e.To)
}

// DiagCode implements diag.Coder.
func (e *InvalidTransitionError) DiagCode() diag.Code { return diag.CodeInvalidTransition }
