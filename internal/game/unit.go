package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
)

// UnitParams holds the optional fields of a new unit. A nil TargetTile means
// the unit has no destination.
type UnitParams struct {
	Troops           int
	TargetUnitID     int
	TargetTile       *core.TileRef
	ConstructionType core.UnitType
}

// Unit is the engine's record of one unit. The owner is stored as a small id;
// like Player, a Unit is mutated only through the engine.
type Unit struct {
	id               int
	unitType         core.UnitType
	owner            core.SmallID
	lastOwner        core.SmallID
	tile             core.TileRef
	lastTile         core.TileRef
	health           int
	troops           int
	active           bool
	constructionType core.UnitType
	targetUnitID     int
	targetTile       core.TileRef
	readyTick        int
}

func (u *Unit) ID() int                         { return u.id }
func (u *Unit) Type() core.UnitType             { return u.unitType }
func (u *Unit) Owner() core.SmallID             { return u.owner }
func (u *Unit) Tile() core.TileRef              { return u.tile }
func (u *Unit) LastTile() core.TileRef          { return u.lastTile }
func (u *Unit) Health() int                     { return u.health }
func (u *Unit) Troops() int                     { return u.troops }
func (u *Unit) IsActive() bool                  { return u.active }
func (u *Unit) ConstructionType() core.UnitType { return u.constructionType }
func (u *Unit) TargetUnitID() int               { return u.targetUnitID }
func (u *Unit) TargetTile() core.TileRef        { return u.targetTile }
func (u *Unit) ReadyTick() int                  { return u.readyTick }

// unitSpec maps a unit type to its configured price and health.
func unitSpec(cfg *config.GameConfig, t core.UnitType) config.UnitSpec {
	spec, _ := cfg.Units.Spec(t.String())
	return spec
}

// UnitCost returns the gold price of t.
func (e *Engine) UnitCost(t core.UnitType) int {
	return unitSpec(&e.cfg, t).Cost
}

func (e *Engine) ConstructionTicks(t core.UnitType) int {
	return unitSpec(&e.cfg, t).ConstructionTicks
}

// BuildUnit creates an active unit. It does not charge the owner.
func (e *Engine) BuildUnit(t core.UnitType, owner *Player, tile core.TileRef, params UnitParams) *Unit {
	if !e.gameMap.IsValidRef(tile) {
		core.Fatalf("build unit", "tile %d: %w", tile, core.ErrOutOfBounds)
	}
	health := unitSpec(&e.cfg, t).MaxHealth
	if health <= 0 {
		health = 1
	}
	targetTile := core.InvalidTile
	if params.TargetTile != nil {
		targetTile = *params.TargetTile
	}

	e.nextUnitID++
	u := &Unit{
		id:               e.nextUnitID,
		unitType:         t,
		owner:            owner.smallID,
		tile:             tile,
		lastTile:         tile,
		health:           health,
		troops:           params.Troops,
		active:           true,
		constructionType: params.ConstructionType,
		targetUnitID:     params.TargetUnitID,
		targetTile:       targetTile,
	}
	e.units = append(e.units, u)
	e.unitsByID[u.id] = u
	e.markUnit(u)
	return u
}

func (e *Engine) markUnit(u *Unit) {
	e.publish(events.NewUnitChangedEvent(e.gameID, e.ticks, u.id))
}

// Unit looks up a unit by id. Units deleted during the previous tick are still
// found, inactive.
func (e *Engine) Unit(id int) (*Unit, bool) {
	u, ok := e.unitsByID[id]
	return u, ok
}

// DeleteUnit deactivates u. It stays in the registry until the next tick so
// the deactivation reaches observers.
func (e *Engine) DeleteUnit(u *Unit) {
	if !u.active {
		return
	}
	u.active = false
	e.markUnit(u)
}

func (e *Engine) dropInactiveUnits() {
	kept := e.units[:0]
	for _, u := range e.units {
		if u.active {
			kept = append(kept, u)
			continue
		}
		delete(e.unitsByID, u.id)
	}
	for i := len(kept); i < len(e.units); i++ {
		e.units[i] = nil
	}
	e.units = kept
}

func (e *Engine) MoveUnit(u *Unit, tile core.TileRef) {
	if !e.gameMap.IsValidRef(tile) {
		core.Fatalf("move unit", "tile %d: %w", tile, core.ErrOutOfBounds)
	}
	u.lastTile = u.tile
	u.tile = tile
	e.markUnit(u)
}

func (e *Engine) SetUnitTroops(u *Unit, troops int) {
	if u.troops != troops {
		u.troops = max(troops, 0)
		e.markUnit(u)
	}
}

// DamageUnit lowers health and deletes the unit when it reaches zero.
func (e *Engine) DamageUnit(u *Unit, damage int) {
	if damage <= 0 || !u.active {
		return
	}
	u.health = max(u.health-damage, 0)
	e.markUnit(u)
	if u.health == 0 {
		e.DeleteUnit(u)
	}
}

func (e *Engine) HealUnit(u *Unit, amount int) {
	limit := unitSpec(&e.cfg, u.unitType).MaxHealth
	if h := min(u.health+amount, limit); h > u.health {
		u.health = h
		e.markUnit(u)
	}
}

func (e *Engine) SetUnitTarget(u *Unit, unitID int, tile core.TileRef) {
	u.targetUnitID = unitID
	u.targetTile = tile
	e.markUnit(u)
}

// SetUnitReadyTick sets the tick from which the unit may act again.
func (e *Engine) SetUnitReadyTick(u *Unit, tick int) {
	u.readyTick = tick
	e.markUnit(u)
}

// CaptureUnit transfers u to a new owner.
func (e *Engine) CaptureUnit(u *Unit, newOwner *Player) {
	if u.owner == newOwner.smallID {
		return
	}
	u.lastOwner = u.owner
	u.owner = newOwner.smallID
	e.markUnit(u)
}

// Units returns the active units of the given types in id order. No types
// means all.
func (e *Engine) Units(types ...core.UnitType) []*Unit {
	var out []*Unit
	for _, u := range e.units {
		if u.active && matchesType(u.unitType, types) {
			out = append(out, u)
		}
	}
	return out
}

// PlayerUnits returns p's active units of the given types in id order.
func (e *Engine) PlayerUnits(p *Player, types ...core.UnitType) []*Unit {
	var out []*Unit
	for _, u := range e.units {
		if u.active && u.owner == p.smallID && matchesType(u.unitType, types) {
			out = append(out, u)
		}
	}
	return out
}

// NearbyUnits returns active units of the given types within radius of tile.
func (e *Engine) NearbyUnits(tile core.TileRef, radius int, types ...core.UnitType) []*Unit {
	var out []*Unit
	r2 := radius * radius
	for _, u := range e.units {
		if u.active && matchesType(u.unitType, types) && e.gameMap.DistSquared(u.tile, tile) <= r2 {
			out = append(out, u)
		}
	}
	return out
}

func matchesType(t core.UnitType, types []core.UnitType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// CanBuild reports whether p may build t at tile and, if so, the tile the unit
// appears on. Ships spawn at the closest port and nukes at the closest ready
// silo.
func (e *Engine) CanBuild(p *Player, t core.UnitType, tile core.TileRef) (core.TileRef, bool) {
	if !t.Buildable() || !p.IsAlive() || !e.gameMap.IsValidRef(tile) {
		return core.InvalidTile, false
	}
	if p.gold < e.UnitCost(t) {
		return core.InvalidTile, false
	}

	switch {
	case t.IsStructure():
		if !p.OwnsTile(tile) {
			return core.InvalidTile, false
		}
		if t == core.UnitPort && !e.gameMap.IsShore(tile) {
			return core.InvalidTile, false
		}
		gap := e.cfg.Units.MinStructureGap
		for _, u := range e.Units() {
			if (u.unitType.IsStructure() || u.unitType == core.UnitConstruction) &&
				e.gameMap.ManhattanDist(u.tile, tile) < gap {
				return core.InvalidTile, false
			}
		}
		return tile, true

	case t == core.UnitWarship:
		if !e.gameMap.IsOcean(tile) {
			return core.InvalidTile, false
		}
		return e.closestUnitTile(p, tile, core.UnitPort, func(*Unit) bool { return true })

	case t == core.UnitTransportShip:
		if len(e.PlayerUnits(p, core.UnitTransportShip)) >= e.cfg.Naval.MaxBoatsPerPlayer {
			return core.InvalidTile, false
		}
		var shores []core.TileRef
		p.ForEachBorderTile(func(ref core.TileRef) {
			if e.gameMap.IsShore(ref) {
				shores = append(shores, ref)
			}
		})
		src := core.ClosestTile(e.gameMap, tile, shores)
		return src, src != core.InvalidTile

	case t.IsNuke():
		if e.gameMap.IsWater(tile) && t != core.UnitMIRV {
			return core.InvalidTile, false
		}
		return e.closestUnitTile(p, tile, core.UnitMissileSilo, func(u *Unit) bool {
			return u.readyTick <= e.ticks
		})
	}
	return core.InvalidTile, false
}

func (e *Engine) closestUnitTile(p *Player, tile core.TileRef, t core.UnitType, ok func(*Unit) bool) (core.TileRef, bool) {
	var candidates []core.TileRef
	for _, u := range e.PlayerUnits(p, t) {
		if ok(u) {
			candidates = append(candidates, u.tile)
		}
	}
	src := core.ClosestTile(e.gameMap, tile, candidates)
	return src, src != core.InvalidTile
}

// UnitAt returns the active unit of one of the types standing on tile.
func (e *Engine) UnitAt(tile core.TileRef, types ...core.UnitType) (*Unit, bool) {
	for _, u := range e.units {
		if u.active && u.tile == tile && matchesType(u.unitType, types) {
			return u, true
		}
	}
	return nil, false
}
