package states

import (
	"fmt"
	"sync"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
)

// State represents a simulation state with lifecycle callbacks
type State interface {
	// Phase returns the SimPhase this state represents
	Phase() SimPhase

	// Enter is called when transitioning into this state
	Enter(ctx *SimContext) error

	// Exit is called when transitioning out of this state
	Exit(ctx *SimContext) error

	// Validate checks if the state is valid given the context
	Validate(ctx *SimContext) error
}

// Transition represents a state transition in the history
type Transition struct {
	From   SimPhase
	To     SimPhase
	Tick   int
	Reason string
}

// StateMachine manages simulation state transitions and history
type StateMachine struct {
	mu             sync.RWMutex
	currentPhase   SimPhase
	states         map[SimPhase]State
	context        *SimContext
	history        []Transition
	maxHistorySize int
	eventBus       events.Publisher
}

// NewStateMachine creates a new state machine. eventBus may be nil.
func NewStateMachine(ctx *SimContext, eventBus events.Publisher) *StateMachine {
	sm := &StateMachine{
		currentPhase:   PhaseUninitialized,
		states:         make(map[SimPhase]State),
		context:        ctx,
		history:        make([]Transition, 0, 4),
		maxHistorySize: 100,
		eventBus:       eventBus,
	}

	sm.RegisterState(NewUninitializedState())
	sm.RegisterState(NewRunningState())
	sm.RegisterState(NewFailedState())
	sm.RegisterState(NewClosedState())

	return sm
}

// RegisterState registers a state implementation
func (sm *StateMachine) RegisterState(state State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[state.Phase()] = state
}

// CurrentPhase returns the current simulation phase
func (sm *StateMachine) CurrentPhase() SimPhase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase
}

// TransitionTo attempts to transition to the specified phase
func (sm *StateMachine) TransitionTo(targetPhase SimPhase, reason string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.currentPhase.CanTransitionTo(targetPhase) {
		return fmt.Errorf("invalid transition from %s to %s", sm.currentPhase, targetPhase)
	}

	currentState, hasCurrentState := sm.states[sm.currentPhase]
	targetState, hasTargetState := sm.states[targetPhase]

	if !hasTargetState {
		return fmt.Errorf("no state implementation for phase %s", targetPhase)
	}

	if err := targetState.Validate(sm.context); err != nil {
		return fmt.Errorf("target state validation failed: %w", err)
	}

	if hasCurrentState {
		if err := currentState.Exit(sm.context); err != nil {
			sm.context.Logger.Error().
				Err(err).
				Str("from_phase", sm.currentPhase.String()).
				Str("to_phase", targetPhase.String()).
				Msg("Error exiting state")
		}
	}

	previousPhase := sm.currentPhase
	sm.currentPhase = targetPhase

	if err := targetState.Enter(sm.context); err != nil {
		// Rollback on enter failure
		sm.currentPhase = previousPhase
		return fmt.Errorf("failed to enter state %s: %w", targetPhase, err)
	}

	sm.addToHistory(Transition{
		From:   previousPhase,
		To:     targetPhase,
		Tick:   sm.context.Tick,
		Reason: reason,
	})

	if sm.eventBus != nil {
		sm.eventBus.Publish(events.NewStateTransitionEvent(
			sm.context.GameID,
			sm.context.Tick,
			previousPhase.String(),
			targetPhase.String(),
			reason,
		))
	}

	sm.context.Logger.Debug().
		Str("from_phase", previousPhase.String()).
		Str("to_phase", targetPhase.String()).
		Str("reason", reason).
		Msg("State transition completed")

	return nil
}

// addToHistory adds a transition to the history, maintaining max size
func (sm *StateMachine) addToHistory(transition Transition) {
	sm.history = append(sm.history, transition)

	if len(sm.history) > sm.maxHistorySize {
		sm.history = sm.history[len(sm.history)-sm.maxHistorySize:]
	}
}

// GetHistory returns a copy of the transition history
func (sm *StateMachine) GetHistory() []Transition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	history := make([]Transition, len(sm.history))
	copy(history, sm.history)
	return history
}

// GetContext returns the simulation context
func (sm *StateMachine) GetContext() *SimContext {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.context
}

// CanTransitionTo checks if a transition to the target phase is allowed
func (sm *StateMachine) CanTransitionTo(targetPhase SimPhase) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase.CanTransitionTo(targetPhase)
}
