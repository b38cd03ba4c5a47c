package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// Snapshot returns the full observable state at the current tick in diff
// form. Applying it to an empty view gives the same state as applying every
// diff produced so far.
func (e *Engine) Snapshot() *protocol.GameUpdateViewData {
	gu := &protocol.GameUpdateViewData{Tick: e.ticks}

	for _, p := range e.players {
		gu.Updates.Players = append(gu.Updates.Players, e.playerUpdate(p))
	}
	for _, u := range e.units {
		gu.Updates.Units = append(gu.Updates.Units, e.unitUpdate(u))
	}
	for _, al := range e.alliances {
		gu.Updates.Alliances = append(gu.Updates.Alliances, protocol.AllianceUpdate{
			ID:        al.id,
			Requestor: al.requestor,
			Recipient: al.recipient,
			CreatedAt: al.createdAt,
		})
	}
	if w := e.Winner(); w != nil {
		gu.Updates.Wins = append(gu.Updates.Wins, protocol.WinUpdate{Winner: w.smallID, WinnerID: string(w.id)})
	}
	gu.Updates.Hashes = append(gu.Updates.Hashes, protocol.HashUpdate{Tick: e.ticks, Hash: e.Hash()})

	m := e.gameMap
	for i := 0; i < m.Size(); i++ {
		ref := core.TileRef(i)
		if !m.IsDefaultState(ref) {
			gu.PackedTileUpdates = append(gu.PackedTileUpdates, protocol.PackMapTile(m, ref))
		}
	}
	return gu
}
