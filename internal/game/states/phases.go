package states

import "fmt"

// SimPhase represents the lifecycle phase of one simulation instance
type SimPhase int

const (
	// PhaseUninitialized - worker started, waiting for the init message
	PhaseUninitialized SimPhase = iota

	// PhaseRunning - engine built, turns are accepted
	PhaseRunning

	// PhaseFailed - a fatal error ended the simulation
	PhaseFailed

	// PhaseClosed - the worker has been shut down
	PhaseClosed
)

// String returns the string representation of a SimPhase
func (p SimPhase) String() string {
	switch p {
	case PhaseUninitialized:
		return "Uninitialized"
	case PhaseRunning:
		return "Running"
	case PhaseFailed:
		return "Failed"
	case PhaseClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if no further message can be processed
func (p SimPhase) IsTerminal() bool {
	return p == PhaseFailed || p == PhaseClosed
}

// CanReceiveTurns returns true if turns may be applied in this phase
func (p SimPhase) CanReceiveTurns() bool {
	return p == PhaseRunning
}

// AllowedTransitions returns the valid phases this phase can transition to
func (p SimPhase) AllowedTransitions() []SimPhase {
	switch p {
	case PhaseUninitialized:
		return []SimPhase{PhaseRunning, PhaseFailed, PhaseClosed}
	case PhaseRunning:
		return []SimPhase{PhaseFailed, PhaseClosed}
	case PhaseFailed:
		return []SimPhase{PhaseClosed}
	default:
		return []SimPhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p SimPhase) CanTransitionTo(target SimPhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a SimPhase
func ParsePhase(s string) SimPhase {
	switch s {
	case "Running":
		return PhaseRunning
	case "Failed":
		return PhaseFailed
	case "Closed":
		return PhaseClosed
	default:
		return PhaseUninitialized
	}
}
