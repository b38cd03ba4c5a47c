package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/execution"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// VerifyResult is the outcome of replaying an archived game.
type VerifyResult struct {
	GameID  string
	Turns   int
	Checked int
	// Diverged is set when a replayed hash differs from the recorded one.
	Diverged bool
	Tick     int
	Want     uint64
	Got      uint64
	// Final is the last update produced by the replay.
	Final *protocol.GameUpdateViewData
}

// Replay runs the archived turns of gameID through a fresh engine and
// calls onUpdate, when non-nil, with every produced update.
func (a *Archive) Replay(ctx context.Context, gameID string, onUpdate func(*protocol.GameUpdateViewData) error) (err error) {
	setup, err := a.Game(ctx, gameID)
	if err != nil {
		return err
	}
	turns, err := a.Turns(ctx, gameID)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			fe, ok := core.AsFatal(r)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("archive: replay of %s: %w", gameID, fe)
		}
	}()

	engineSetup := game.EngineSetup{
		GameID: setup.GameID,
		Game:   setup.Game,
		Map:    setup.Map,
		Logger: zerolog.Nop(),
	}
	if setup.Terrain != nil {
		m, err := setup.Terrain.GameMap()
		if err != nil {
			return fmt.Errorf("archive: terrain of %s: %w", gameID, err)
		}
		engineSetup.Terrain = m
	}
	engine, err := game.NewEngineInitializer(engineSetup).Initialize(ctx)
	if err != nil {
		return fmt.Errorf("archive: init replay of %s: %w", gameID, err)
	}
	manager := execution.NewManager(setup.GameID, setup.Game, zerolog.Nop())
	engine.AddExecution(manager.InitialExecs(engine.Map())...)
	processor := game.NewTurnProcessor(engine, manager)

	for _, turn := range turns {
		gu, err := processor.ProcessTurn(ctx, turn)
		if err != nil {
			return err
		}
		if onUpdate != nil {
			if err := onUpdate(gu); err != nil {
				return err
			}
		}
	}
	return nil
}

// Verify replays gameID and compares every hash produced against the
// recorded ones, stopping at the first divergence.
func (a *Archive) Verify(ctx context.Context, gameID string) (*VerifyResult, error) {
	recorded, err := a.Hashes(ctx, gameID)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{GameID: gameID}
	errStop := errors.New("diverged")
	err = a.Replay(ctx, gameID, func(gu *protocol.GameUpdateViewData) error {
		res.Turns++
		res.Final = gu
		h, ok := gu.LastHash()
		if !ok {
			return nil
		}
		want, ok := recorded[h.Tick]
		if !ok {
			return nil
		}
		res.Checked++
		if want != h.Hash {
			res.Diverged = true
			res.Tick = h.Tick
			res.Want = want
			res.Got = h.Hash
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}

	log := a.logger.Info()
	if res.Diverged {
		log = a.logger.Warn().Int("tick", res.Tick).Uint64("want", res.Want).Uint64("got", res.Got)
	}
	log.Str("game_id", gameID).
		Int("turns", res.Turns).
		Int("checked", res.Checked).
		Bool("diverged", res.Diverged).
		Msg("Replay verified")
	return res, nil
}
