package rules

import (
	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// Player interface to avoid circular imports
type Player interface {
	SmallID() core.SmallID
	NumTilesOwned() int
	IsAlive() bool
}

// WinConditionChecker decides whether a player has won
type WinConditionChecker struct {
	logger           zerolog.Logger
	thresholdPercent int
}

// NewWinConditionChecker creates a new win condition checker. A player wins
// once it owns more than thresholdPercent of the land tiles.
func NewWinConditionChecker(logger zerolog.Logger, thresholdPercent int) *WinConditionChecker {
	return &WinConditionChecker{
		logger:           logger.With().Str("component", "WinConditionChecker").Logger(),
		thresholdPercent: thresholdPercent,
	}
}

// CheckWinner returns the winning player, if any. players must be in a
// stable order; ties on tile count go to the earlier player. A lone
// surviving player also wins when more than one player took part.
func (wc *WinConditionChecker) CheckWinner(players []Player, numLandTiles int) (Player, bool) {
	var leader Player
	alive := 0
	var lastAlive Player

	for _, p := range players {
		if !p.IsAlive() {
			continue
		}
		alive++
		lastAlive = p
		if leader == nil || p.NumTilesOwned() > leader.NumTilesOwned() {
			leader = p
		}
	}

	if leader == nil {
		return nil, false
	}

	if ExceedsShare(leader.NumTilesOwned(), numLandTiles, wc.thresholdPercent) {
		wc.logger.Info().
			Uint16("winner", uint16(leader.SmallID())).
			Int("tiles", leader.NumTilesOwned()).
			Int("land", numLandTiles).
			Msg("Winner determined by territory")
		return leader, true
	}

	if alive == 1 && len(players) > 1 {
		wc.logger.Info().Uint16("winner", uint16(lastAlive.SmallID())).Msg("Winner determined as last player standing")
		return lastAlive, true
	}

	wc.logger.Debug().Int("alive_player_count", alive).Msg("Win check complete")
	return nil, false
}

// ExceedsShare reports whether owned is strictly more than pct percent of total.
func ExceedsShare(owned, total, pct int) bool {
	if total <= 0 {
		return false
	}
	return int64(owned)*100 > int64(total)*int64(pct)
}
