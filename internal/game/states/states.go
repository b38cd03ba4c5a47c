package states

import (
	"fmt"
)

// UninitializedState is the phase before the init message
type UninitializedState struct{}

func NewUninitializedState() State {
	return &UninitializedState{}
}

func (s *UninitializedState) Phase() SimPhase {
	return PhaseUninitialized
}

func (s *UninitializedState) Enter(ctx *SimContext) error {
	ctx.Logger.Debug().Msg("Entering Uninitialized state")
	return nil
}

func (s *UninitializedState) Exit(ctx *SimContext) error {
	return nil
}

func (s *UninitializedState) Validate(ctx *SimContext) error {
	return nil
}

// RunningState accepts turns
type RunningState struct{}

func NewRunningState() State {
	return &RunningState{}
}

func (s *RunningState) Phase() SimPhase {
	return PhaseRunning
}

func (s *RunningState) Enter(ctx *SimContext) error {
	ctx.Logger.Info().Msg("Simulation running")
	return nil
}

func (s *RunningState) Exit(ctx *SimContext) error {
	ctx.Logger.Info().Int("tick", ctx.Tick).Msg("Simulation stopped")
	return nil
}

func (s *RunningState) Validate(ctx *SimContext) error {
	if !ctx.Initialized {
		return fmt.Errorf("cannot run before the engine is initialized")
	}
	return nil
}

// FailedState holds a simulation that hit a fatal error
type FailedState struct{}

func NewFailedState() State {
	return &FailedState{}
}

func (s *FailedState) Phase() SimPhase {
	return PhaseFailed
}

func (s *FailedState) Enter(ctx *SimContext) error {
	ctx.Logger.Error().Err(ctx.Error).Int("tick", ctx.Tick).Msg("Simulation failed")
	return nil
}

func (s *FailedState) Exit(ctx *SimContext) error {
	return nil
}

func (s *FailedState) Validate(ctx *SimContext) error {
	if ctx.Error == nil {
		return fmt.Errorf("failed state requires an error")
	}
	return nil
}

// ClosedState is the final state
type ClosedState struct{}

func NewClosedState() State {
	return &ClosedState{}
}

func (s *ClosedState) Phase() SimPhase {
	return PhaseClosed
}

func (s *ClosedState) Enter(ctx *SimContext) error {
	ctx.Logger.Debug().Msg("Simulation closed")
	return nil
}

func (s *ClosedState) Exit(ctx *SimContext) error {
	return nil
}

func (s *ClosedState) Validate(ctx *SimContext) error {
	return nil
}
