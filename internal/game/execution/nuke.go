package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/rules"
)

// outerBlastPercent is the chance a tile between the inner and outer radius
// is destroyed.
const outerBlastPercent = 50

// NukeExecution flies a bomb in a straight line from its silo and detonates
// it on the target tile.
type NukeExecution struct {
	ownerID  core.PlayerID
	unitType core.UnitType
	src, dst core.TileRef

	e      *game.Engine
	owner  *game.Player
	unit   *game.Unit
	path   []core.TileRef
	step   int
	active bool
}

func NewNukeExecution(owner core.PlayerID, unitType core.UnitType, src, dst core.TileRef) *NukeExecution {
	return &NukeExecution{ownerID: owner, unitType: unitType, src: src, dst: dst}
}

func (n *NukeExecution) ActiveDuringSpawnPhase() bool { return false }
func (n *NukeExecution) IsActive() bool               { return n.active }

func (n *NukeExecution) Init(e *game.Engine, tick int) {
	n.e = e
	n.owner = e.Player(n.ownerID)
	dst := n.dst
	n.unit = e.BuildUnit(n.unitType, n.owner, n.src, game.UnitParams{TargetTile: &dst})
	n.path = core.LinePath(e.Map(), n.src, n.dst)
	n.active = true

	if target := e.Owner(n.dst); target != nil && target != n.owner && n.unitType != core.UnitMIRVWarhead {
		e.DisplayMessage(n.owner.Name()+" launched a "+n.unitType.String()+" at you", MessageNuke, target)
	}
}

func (n *NukeExecution) Tick(tick int) {
	if !n.unit.IsActive() {
		// intercepted
		n.active = false
		return
	}
	speed := max(n.e.Config().Nukes.Speed, 1)
	n.step = min(n.step+speed, len(n.path)-1)
	n.e.MoveUnit(n.unit, n.path[n.step])
	if n.step == len(n.path)-1 {
		detonate(n.e, n.owner, n.unit)
		n.active = false
	}
}

// detonate destroys territory around the bomb's tile, leaves fallout, kills
// a proportional share of each victim's troops and destroys units in the
// blast.
func detonate(e *game.Engine, owner *game.Player, bomb *game.Unit) {
	m := e.Map()
	rng := e.Random()
	center := bomb.Tile()
	inner, outer := rules.NukeRadii(e.Config().Nukes, bomb.Type())
	inner2 := inner * inner

	var victims []*game.Player
	lost := make(map[core.SmallID]int)
	for _, ref := range m.TilesInRadius(center, outer) {
		if !m.IsLand(ref) {
			continue
		}
		if m.DistSquared(center, ref) > inner2 && !rng.Percent(outerBlastPercent) {
			continue
		}
		if victim := e.Owner(ref); victim != nil {
			if lost[victim.SmallID()] == 0 {
				victims = append(victims, victim)
			}
			lost[victim.SmallID()]++
			e.Relinquish(ref)
		}
		e.SetFallout(ref, true)
	}

	for _, victim := range victims {
		n := lost[victim.SmallID()]
		killed := victim.Troops() * n / (n + victim.NumTilesOwned())
		e.RemoveTroops(victim, killed)
		if victim != owner && e.IsAlliedWith(owner, victim) {
			e.BreakAlliance(owner, victim)
		}
		if victim != owner {
			e.DisplayMessage("You were hit by a "+bomb.Type().String()+" from "+owner.Name(), MessageNuke, victim)
		}
	}

	for _, u := range e.NearbyUnits(center, outer) {
		if u != bomb && !u.Type().IsNuke() {
			e.DeleteUnit(u)
		}
	}
	e.DeleteUnit(bomb)

	e.Logger().Debug().
		Str("owner", string(owner.ID())).
		Str("unit", bomb.Type().String()).
		Int("tile", int(center)).
		Int("victims", len(victims)).
		Msg("Nuke detonated")
}

// MIRVExecution flies a MIRV to its target and splits it into warheads
// aimed at the target owner's territory around it.
type MIRVExecution struct {
	ownerID  core.PlayerID
	src, dst core.TileRef

	e      *game.Engine
	owner  *game.Player
	unit   *game.Unit
	path   []core.TileRef
	step   int
	active bool
}

func NewMIRVExecution(owner core.PlayerID, src, dst core.TileRef) *MIRVExecution {
	return &MIRVExecution{ownerID: owner, src: src, dst: dst}
}

func (x *MIRVExecution) ActiveDuringSpawnPhase() bool { return false }
func (x *MIRVExecution) IsActive() bool               { return x.active }

func (x *MIRVExecution) Init(e *game.Engine, tick int) {
	x.e = e
	x.owner = e.Player(x.ownerID)
	dst := x.dst
	x.unit = e.BuildUnit(core.UnitMIRV, x.owner, x.src, game.UnitParams{TargetTile: &dst})
	x.path = core.LinePath(e.Map(), x.src, x.dst)
	x.active = true

	if target := e.Owner(x.dst); target != nil && target != x.owner {
		e.DisplayMessage(x.owner.Name()+" launched a MIRV at you", MessageNuke, target)
	}
}

func (x *MIRVExecution) Tick(tick int) {
	if !x.unit.IsActive() {
		x.active = false
		return
	}
	speed := max(x.e.Config().Nukes.Speed, 1)
	x.step = min(x.step+speed, len(x.path)-1)
	x.e.MoveUnit(x.unit, x.path[x.step])
	if x.step == len(x.path)-1 {
		x.split()
		x.active = false
	}
}

func (x *MIRVExecution) split() {
	e := x.e
	m := e.Map()
	cfg := e.Config().Nukes
	target := e.Owner(x.dst)

	var candidates []core.TileRef
	for _, ref := range m.TilesInRadius(x.dst, cfg.MIRVSpread) {
		if !m.IsLand(ref) {
			continue
		}
		if target == nil || m.OwnerID(ref) == target.SmallID() {
			candidates = append(candidates, ref)
		}
	}
	e.Random().ShuffleTiles(candidates)
	candidates = candidates[:min(len(candidates), cfg.MIRVWarheads)]

	if target != nil && target != x.owner && e.IsAlliedWith(x.owner, target) {
		e.BreakAlliance(x.owner, target)
	}
	for _, ref := range candidates {
		e.AddExecution(NewNukeExecution(x.owner.ID(), core.UnitMIRVWarhead, x.unit.Tile(), ref))
	}
	e.DeleteUnit(x.unit)
}
