package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// TransportShipExecution carries troops over water and turns the landing
// into an attack.
type TransportShipExecution struct {
	clientID       string
	targetClientID string
	troops         int
	dst            core.Cell
	src            *core.Cell

	e      *game.Engine
	owner  *game.Player
	target core.SmallID
	dstRef core.TileRef
	unit   *game.Unit
	path   []core.TileRef
	step   int
	active bool
}

// NewTransportShipExecution creates a boat attack on the land tile dst. A nil
// src launches from the owner's shore tile closest to dst.
func NewTransportShipExecution(clientID, targetClientID string, troops int, dst core.Cell, src *core.Cell) *TransportShipExecution {
	return &TransportShipExecution{
		clientID:       clientID,
		targetClientID: targetClientID,
		troops:         troops,
		dst:            dst,
		src:            src,
	}
}

func (t *TransportShipExecution) ActiveDuringSpawnPhase() bool { return false }
func (t *TransportShipExecution) IsActive() bool               { return t.active }

func (t *TransportShipExecution) Init(e *game.Engine, tick int) {
	t.e = e
	logger := e.Logger().With().Str("client_id", t.clientID).Int("tick", tick).Logger()

	p, ok := lookupPlayer(e, t.clientID, "boat")
	if !ok {
		return
	}
	t.owner = p
	m := e.Map()
	t.dstRef = m.RefOf(t.dst)

	t.target = core.NoOwner
	if t.targetClientID != "" {
		target, ok := e.PlayerByClientID(t.targetClientID)
		if !ok {
			logger.Warn().Str("target", t.targetClientID).Msg("Boat to unknown player ignored")
			return
		}
		t.target = target.SmallID()
	}
	if !m.IsLand(t.dstRef) || m.OwnerID(t.dstRef) != t.target || t.target == p.SmallID() {
		logger.Debug().Str("cell", t.dst.String()).Msg("Invalid boat destination")
		return
	}

	spawn, ok := e.CanBuild(p, core.UnitTransportShip, t.dstRef)
	if !ok {
		logger.Debug().Msg("Cannot launch transport ship")
		return
	}
	if t.src != nil && m.IsValidCoord(t.src.X, t.src.Y) {
		if ref := m.RefOf(*t.src); p.OwnsTile(ref) && m.IsShore(ref) {
			spawn = ref
		}
	}

	from := closestWater(m, spawn, t.dstRef)
	to := closestWater(m, t.dstRef, spawn)
	if from == core.InvalidTile || to == core.InvalidTile {
		logger.Debug().Msg("Boat destination is not on the shore")
		return
	}
	path, ok := core.WaterPath(m, from, to, e.Config().Naval.PathSearchLimit)
	if !ok {
		logger.Debug().Msg("No water path for transport ship")
		return
	}

	troops := e.RemoveTroops(p, defaultTroops(p, t.troops))
	if troops <= 0 {
		return
	}
	dst := t.dstRef
	t.unit = e.BuildUnit(core.UnitTransportShip, p, from, game.UnitParams{Troops: troops, TargetTile: &dst})
	t.path = path
	t.active = true
}

// closestWater returns the water neighbor of shore closest to toward.
func closestWater(m *core.GameMap, shore, toward core.TileRef) core.TileRef {
	var water []core.TileRef
	m.ForEachNeighbor(shore, func(n core.TileRef) {
		if m.IsWater(n) {
			water = append(water, n)
		}
	})
	return core.ClosestTile(m, toward, water)
}

func (t *TransportShipExecution) Tick(tick int) {
	if !t.unit.IsActive() {
		// sunk, the troops are lost
		t.active = false
		return
	}

	speed := max(t.e.Config().Naval.BoatSpeed, 1)
	t.step = min(t.step+speed, len(t.path)-1)
	t.e.MoveUnit(t.unit, t.path[t.step])
	if t.step == len(t.path)-1 {
		t.land()
	}
}

func (t *TransportShipExecution) land() {
	e := t.e
	troops := t.unit.Troops()
	e.DeleteUnit(t.unit)
	t.active = false

	if !t.owner.IsAlive() {
		return
	}
	owner := e.Owner(t.dstRef)
	if owner == t.owner || (owner != nil && e.IsAlliedWith(t.owner, owner)) {
		e.AddTroops(t.owner, troops)
		return
	}

	target := core.NoOwner
	if owner != nil {
		target = owner.SmallID()
	}
	e.Conquer(t.owner, t.dstRef)
	e.AddExecution(newBoatAttack(t.owner.ID(), target, troops, t.dstRef))
}
