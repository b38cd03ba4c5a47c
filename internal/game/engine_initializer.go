package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/mapgen"
)

// EngineSetup is everything needed to build an engine.
type EngineSetup struct {
	GameID string
	Game   config.GameConfig
	Map    config.MapConfig
	// Terrain, when set, is used instead of generating a map from Map.
	Terrain *core.GameMap
	Logger  zerolog.Logger
}

// EngineInitializer handles the staged construction of a game engine
type EngineInitializer struct {
	setup  EngineSetup
	logger zerolog.Logger
}

// NewEngineInitializer creates a new engine initializer
func NewEngineInitializer(setup EngineSetup) *EngineInitializer {
	logger := setup.Logger.With().Str("component", "EngineInitializer").Str("game_id", setup.GameID).Logger()
	return &EngineInitializer{
		setup:  setup,
		logger: logger,
	}
}

// Initialize creates a new engine ready for its first tick
func (ei *EngineInitializer) Initialize(ctx context.Context) (*Engine, error) {
	if err := ei.checkContext(ctx, "initial phase"); err != nil {
		return nil, err
	}

	if err := ei.validate(); err != nil {
		return nil, err
	}

	gameMap, err := ei.loadMap()
	if err != nil {
		return nil, fmt.Errorf("map generation failed: %w", err)
	}

	if err := ei.checkContext(ctx, "after map generation"); err != nil {
		return nil, err
	}

	engine := NewEngine(ei.setup.GameID, gameMap, ei.setup.Game, ei.setup.Logger)

	ei.logger.Info().
		Int("width", gameMap.Width()).
		Int("height", gameMap.Height()).
		Int("land_tiles", gameMap.NumLandTiles()).
		Int("spawn_phase_turns", ei.setup.Game.SpawnPhaseTurns).
		Msg("Engine created successfully")

	return engine, nil
}

func (ei *EngineInitializer) checkContext(ctx context.Context, phase string) error {
	select {
	case <-ctx.Done():
		ei.logger.Error().Err(ctx.Err()).Str("phase", phase).Msg("Engine creation cancelled or timed out")
		return ctx.Err()
	default:
		return nil
	}
}

func (ei *EngineInitializer) validate() error {
	if ei.setup.GameID == "" {
		return fmt.Errorf("engine setup: empty game id")
	}
	if err := config.ValidateGame(ei.setup.Game); err != nil {
		return fmt.Errorf("engine setup: %w", err)
	}
	return nil
}

// loadMap returns a private copy of the provided terrain, or generates one.
func (ei *EngineInitializer) loadMap() (*core.GameMap, error) {
	if ei.setup.Terrain != nil {
		ei.logger.Debug().Msg("Using provided terrain")
		return ei.setup.Terrain.Clone(), nil
	}
	return mapgen.NewGenerator(ei.setup.Map).Generate()
}
