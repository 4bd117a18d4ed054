package transition

import "fmt"

// State is the position of a PipelineRun in its lifecycle.
type State string

const (
	StateIdle          State = "idle"
	StateStaged        State = "staged"
	StateRunning       State = "running"
	StateStepSucceeded State = "step_succeeded"
	StateStepFailed    State = "step_failed"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
	StateCancelled     State = "cancelled"
)

// Outcome is the terminal result of a PipelineRun.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// IsTerminal reports whether no further step may run from s.
func IsTerminal(s State) bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateStaged || to == StateSucceeded || to == StateFailed || to == StateCancelled
	case StateStaged:
		return to == StateRunning || to == StateFailed || to == StateCancelled
	case StateRunning:
		return to == StateStepSucceeded || to == StateStepFailed
	case StateStepSucceeded:
		return to == StateStaged || to == StateSucceeded || to == StateFailed || to == StateCancelled
	case StateStepFailed:
		return to == StateFailed || to == StateCancelled
	default:
		return false
	}
}

func (r *PipelineRun) transition(to State) error {
	if !isAllowedTransition(r.State, to) {
		return fmt.Errorf("run %s: disallowed transition %s -> %s", r.ID, r.State, to)
	}
	r.State = to
	switch to {
	case StateSucceeded:
		r.Outcome = OutcomeSucceeded
	case StateFailed:
		r.Outcome = OutcomeFailed
	case StateCancelled:
		r.Outcome = OutcomeCancelled
	}
	return nil
}
