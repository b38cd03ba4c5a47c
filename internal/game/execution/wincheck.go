package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/rules"
)

const defaultWinCheckInterval = 10

// WinCheckExecution periodically looks for a player holding enough of the
// land, or the last one standing, and declares it the winner.
type WinCheckExecution struct {
	e        *game.Engine
	checker  *rules.WinConditionChecker
	interval int
	active   bool
}

func NewWinCheckExecution() *WinCheckExecution {
	return &WinCheckExecution{}
}

func (w *WinCheckExecution) ActiveDuringSpawnPhase() bool { return false }
func (w *WinCheckExecution) IsActive() bool               { return w.active }

func (w *WinCheckExecution) Init(e *game.Engine, tick int) {
	w.e = e
	w.checker = rules.NewWinConditionChecker(*e.Logger(), e.Config().WinThresholdPercent)
	w.interval = e.Config().WinCheckInterval
	if w.interval <= 0 {
		w.interval = defaultWinCheckInterval
	}
	w.active = true
}

func (w *WinCheckExecution) Tick(tick int) {
	if tick%w.interval != 0 {
		return
	}
	if w.e.Winner() != nil {
		w.active = false
		return
	}

	var players []rules.Player
	for _, p := range w.e.AllPlayers() {
		if p.HasSpawned() {
			players = append(players, p)
		}
	}
	winner, ok := w.checker.CheckWinner(players, w.e.Map().NumLandTiles())
	if !ok {
		return
	}
	w.e.SetWinner(winner.(*game.Player))
	w.active = false
}
