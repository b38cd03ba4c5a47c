package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// ExecutionFactory converts the intents of a turn into executions.
type ExecutionFactory interface {
	CreateExecs(turn protocol.Turn) []Execution
}

// TurnProcessor applies turns to an engine, one tick per turn
type TurnProcessor struct {
	engine  *Engine
	factory ExecutionFactory
	logger  zerolog.Logger
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(engine *Engine, factory ExecutionFactory) *TurnProcessor {
	return &TurnProcessor{
		engine:  engine,
		factory: factory,
		logger:  engine.logger.With().Str("component", "TurnProcessor").Logger(),
	}
}

// ProcessTurn applies turn and executes exactly one tick. The turn number must
// equal the engine tick, which also rules out applying a turn twice; a
// mismatch is fatal. A cancelled context is checked only before anything is
// applied.
func (tp *TurnProcessor) ProcessTurn(ctx context.Context, turn protocol.Turn) (*protocol.GameUpdateViewData, error) {
	if err := tp.checkContext(ctx, "before starting"); err != nil {
		return nil, err
	}

	tp.validateTurn(turn)

	turnLogger := tp.logger.With().Int("turn", turn.TurnNumber).Logger()
	turnLogger.Debug().Int("num_intents", len(turn.Intents)).Msg("Applying turn")

	start := time.Now()
	tp.engine.AddExecution(tp.factory.CreateExecs(turn)...)
	gu := tp.engine.ExecuteNextTick()

	turnLogger.Debug().
		Dur("duration", time.Since(start)).
		Int("tile_updates", len(gu.PackedTileUpdates)).
		Msg("Turn applied")
	return gu, nil
}

func (tp *TurnProcessor) checkContext(ctx context.Context, phase string) error {
	select {
	case <-ctx.Done():
		tp.logger.Warn().
			Err(ctx.Err()).
			Int("tick", tp.engine.ticks).
			Str("phase", phase).
			Msg("Turn cancelled or timed out")
		return ctx.Err()
	default:
		return nil
	}
}

func (tp *TurnProcessor) validateTurn(turn protocol.Turn) {
	if turn.TurnNumber != tp.engine.ticks {
		core.Fatalf("apply turn", "turn %d at tick %d: %w", turn.TurnNumber, tp.engine.ticks, core.ErrTurnMismatch)
	}
}
