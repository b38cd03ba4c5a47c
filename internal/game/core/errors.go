package core

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds       = errors.New("tile reference out of bounds")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrTileNotOwned      = errors.New("tile has no owner")
	ErrWaterTile         = errors.New("tile is water")
	ErrAllianceInvariant = errors.New("alliance invariant violated")
	ErrSmallIDExhausted  = errors.New("no small ids left")
	ErrInvalidMap        = errors.New("invalid map dimensions")
	ErrGameOver          = errors.New("game is over")
	ErrTurnMismatch      = errors.New("turn number does not match engine tick")
	ErrDuplicatePlayer   = errors.New("player already exists")
)

// FatalError is raised by the engine when one of its invariants does not hold.
// It is never recovered inside the engine; the simulation runtime turns it into
// a terminal error for the interactive side.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal panics with a *FatalError.
func Fatal(op string, err error) {
	panic(&FatalError{Op: op, Err: err})
}

// Fatalf panics with a *FatalError wrapping a formatted error. The format may
// use %w to keep a sentinel in the chain.
func Fatalf(op string, format string, args ...interface{}) {
	panic(&FatalError{Op: op, Err: fmt.Errorf(format, args...)})
}

// AsFatal extracts a *FatalError from a recovered panic value.
func AsFatal(r interface{}) (*FatalError, bool) {
	switch v := r.(type) {
	case *FatalError:
		return v, true
	case error:
		var fe *FatalError
		if errors.As(v, &fe) {
			return fe, true
		}
	}
	return nil, false
}

// WrapTickError adds tick and phase context to an error.
func WrapTickError(tick int, phase string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("tick %d [%s]: %w", tick, phase, err)
}

// WrapPlayerError adds player context to an error.
func WrapPlayerError(id PlayerID, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("player %s %s: %w", id, operation, err)
}

// GameError carries structured context about a failed engine operation.
type GameError struct {
	Tick      int
	PlayerID  PlayerID
	Operation string
	Err       error
}

// NewGameError creates a GameError.
func NewGameError(tick int, playerID PlayerID, operation string, err error) *GameError {
	return &GameError{Tick: tick, PlayerID: playerID, Operation: operation, Err: err}
}

func (e *GameError) Error() string {
	if e.PlayerID != "" {
		return fmt.Sprintf("tick %d: player %s %s: %v", e.Tick, e.PlayerID, e.Operation, e.Err)
	}
	return fmt.Sprintf("tick %d: %s: %v", e.Tick, e.Operation, e.Err)
}

func (e *GameError) Unwrap() error {
	return e.Err
}
