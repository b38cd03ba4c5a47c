package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// PlayerExecution runs the per-tick economy of one player and retires the
// player once it owns no territory.
type PlayerExecution struct {
	playerID core.PlayerID
	e        *game.Engine
	p        *game.Player
	active   bool
}

func NewPlayerExecution(id core.PlayerID) *PlayerExecution {
	return &PlayerExecution{playerID: id}
}

func (pe *PlayerExecution) Init(e *game.Engine, tick int) {
	pe.e = e
	pe.p = e.Player(pe.playerID)
	pe.active = true
}

func (pe *PlayerExecution) Tick(tick int) {
	e, p := pe.e, pe.p
	if !p.IsAlive() {
		e.EliminatePlayer(p)
		pe.active = false
		return
	}

	e.ApplyProduction(p)
	pe.expireAlliances(tick)
	pe.settleStructures()
}

// expireAlliances ends alliances this player requested once they are old
// enough. Only the requestor's execution checks, so each alliance expires
// once.
func (pe *PlayerExecution) expireAlliances(tick int) {
	duration := pe.e.Config().Alliance.DurationTicks
	if duration <= 0 {
		return
	}
	for _, al := range pe.e.PlayerAlliances(pe.p) {
		if al.Requestor() == pe.p.SmallID() && tick-al.CreatedAt() >= duration {
			pe.e.ExpireAlliance(al)
		}
	}
}

// settleStructures hands structures standing on lost tiles to the new owner.
// Unfinished constructions and structures on unowned land are destroyed.
func (pe *PlayerExecution) settleStructures() {
	for _, u := range pe.e.PlayerUnits(pe.p) {
		if !u.Type().IsStructure() && u.Type() != core.UnitConstruction {
			continue
		}
		owner := pe.e.Owner(u.Tile())
		switch {
		case owner == pe.p:
		case owner == nil || u.Type() == core.UnitConstruction:
			pe.e.DeleteUnit(u)
		default:
			pe.e.CaptureUnit(u, owner)
		}
	}
}

func (pe *PlayerExecution) IsActive() bool               { return pe.active }
func (pe *PlayerExecution) ActiveDuringSpawnPhase() bool { return false }
