package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// StructureExecution drives a finished building for as long as it stands.
// Cities, factories and silos are passive: the production manager counts
// them and silos keep their cooldown in the unit's ready tick.
type StructureExecution struct {
	unitID int

	e      *game.Engine
	unit   *game.Unit
	rng    *core.PseudoRandom
	active bool

	// tiles this defense post currently protects
	protected *core.TileSet
}

func NewStructureExecution(unitID int) *StructureExecution {
	return &StructureExecution{unitID: unitID}
}

func (s *StructureExecution) ActiveDuringSpawnPhase() bool { return false }
func (s *StructureExecution) IsActive() bool               { return s.active }

func (s *StructureExecution) Init(e *game.Engine, tick int) {
	u, ok := e.Unit(s.unitID)
	if !ok || !u.IsActive() {
		return
	}
	s.e = e
	s.unit = u
	s.rng = e.NewRandom()
	s.active = true
	if u.Type() == core.UnitDefensePost {
		s.protected = core.NewTileSet()
		s.refreshDefense()
	}
}

func (s *StructureExecution) Tick(tick int) {
	if !s.unit.IsActive() {
		if s.protected != nil {
			s.clearDefense()
		}
		s.active = false
		return
	}
	switch s.unit.Type() {
	case core.UnitPort:
		s.tickPort()
	case core.UnitDefensePost:
		s.refreshDefense()
	case core.UnitSAMLauncher:
		s.tickSAM(tick)
	}
}

// tickPort occasionally sends a trade ship to another player's port.
func (s *StructureExecution) tickPort() {
	e := s.e
	if !s.rng.Chance(e.Config().Naval.TradeShipOdds) {
		return
	}
	owner := e.PlayerBySmallID(s.unit.Owner())
	var partners []*game.Unit
	for _, port := range e.Units(core.UnitPort) {
		if port.Owner() == owner.SmallID() {
			continue
		}
		other := e.PlayerBySmallID(port.Owner())
		if other.HasEmbargoAgainst(owner) || owner.HasEmbargoAgainst(other) {
			continue
		}
		partners = append(partners, port)
	}
	if len(partners) == 0 {
		return
	}
	dst := partners[s.rng.NextInt(0, len(partners))]
	e.AddExecution(NewTradeShipExecution(s.unit.ID(), dst.ID()))
}

// refreshDefense keeps the defense bonus on the owner's tiles in range.
func (s *StructureExecution) refreshDefense() {
	e := s.e
	m := e.Map()
	owner := s.unit.Owner()
	want := core.NewTileSet()
	for _, ref := range m.TilesInRadius(s.unit.Tile(), e.Config().Units.DefensePostRadius) {
		if m.OwnerID(ref) == owner {
			want.Add(ref)
		}
	}
	for _, ref := range s.protected.Slice() {
		if !want.Has(ref) {
			s.protected.Remove(ref)
			s.release(ref)
		}
	}
	want.ForEach(func(ref core.TileRef) {
		if s.protected.Add(ref) {
			e.SetDefenseBonus(ref, true)
		}
	})
}

func (s *StructureExecution) clearDefense() {
	for _, ref := range s.protected.Slice() {
		s.protected.Remove(ref)
		s.release(ref)
	}
}

// release drops the bonus from ref unless another post of the tile's owner
// still covers it.
func (s *StructureExecution) release(ref core.TileRef) {
	e := s.e
	m := e.Map()
	radius := e.Config().Units.DefensePostRadius
	for _, post := range e.NearbyUnits(ref, radius, core.UnitDefensePost) {
		if post != s.unit && post.Owner() == m.OwnerID(ref) {
			return
		}
	}
	e.SetDefenseBonus(ref, false)
}

// tickSAM shoots at the first hostile nuke in range once the launcher is
// ready.
func (s *StructureExecution) tickSAM(tick int) {
	e := s.e
	if s.unit.ReadyTick() > tick {
		return
	}
	cfg := e.Config().Nukes
	owner := e.PlayerBySmallID(s.unit.Owner())
	for _, nuke := range e.NearbyUnits(s.unit.Tile(), cfg.SAMRange, core.UnitAtomBomb, core.UnitHydrogenBomb, core.UnitMIRVWarhead) {
		attacker := e.PlayerBySmallID(nuke.Owner())
		if attacker == owner || e.IsAlliedWith(attacker, owner) {
			continue
		}
		e.SetUnitReadyTick(s.unit, tick+cfg.SAMCooldown)
		if s.rng.Percent(cfg.SAMHitPercent) {
			e.DeleteUnit(nuke)
			e.DisplayMessage(nuke.Type().String()+" intercepted", MessageNuke, owner)
			e.DisplayMessage("Your "+nuke.Type().String()+" was intercepted", MessageNuke, attacker)
		} else {
			e.DisplayMessage("Interception missed", MessageNuke, owner)
		}
		return
	}
}
