package workflow

// State is the client-side view of a job's lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timedOut"
	StateErrored   State = "errored"
	StateCancelled State = "cancelled"
)

// IsTerminal reports whether the workflow has ended.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateErrored, StateCancelled:
		return true
	}
	return false
}

// validTransitions lists which states may follow each state. A terminal state
// can only be left by starting over, which passes through idle.
var validTransitions = map[State][]State{
	StateIdle:      {StateUploading, StatePolling, StateErrored},
	StateUploading: {StatePolling, StateErrored, StateCancelled},
	StatePolling:   {StateCompleted, StateFailed, StateTimedOut, StateErrored, StateCancelled},
	StateCompleted: {StateIdle},
	StateFailed:    {StateIdle},
	StateTimedOut:  {StateIdle},
	StateErrored:   {StateIdle},
	StateCancelled: {StateIdle},
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
