package states

import (
	"github.com/rs/zerolog"
)

// SimContext provides simulation-specific information to states
type SimContext struct {
	// GameID uniquely identifies this simulation instance
	GameID string

	// Logger for state-specific logging
	Logger zerolog.Logger

	// Initialized is set once the engine and terrain are built
	Initialized bool

	// Tick is the engine tick at the time of the last transition
	Tick int

	// Error holds the fatal error that caused the transition to PhaseFailed
	Error error
}

// NewSimContext creates a new simulation context
func NewSimContext(gameID string, logger zerolog.Logger) *SimContext {
	return &SimContext{
		GameID: gameID,
		Logger: logger.With().Str("game_id", gameID).Logger(),
	}
}
