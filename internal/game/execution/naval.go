package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// captureRange is how close a warship must get to seize a trade ship.
const captureRange = 2

// WarshipExecution patrols around the warship's target tile, seizes hostile
// trade ships and shells hostile ships in range.
type WarshipExecution struct {
	unitID int

	e      *game.Engine
	unit   *game.Unit
	rng    *core.PseudoRandom
	path   []core.TileRef
	step   int
	active bool
}

func NewWarshipExecution(unitID int) *WarshipExecution {
	return &WarshipExecution{unitID: unitID}
}

func (w *WarshipExecution) ActiveDuringSpawnPhase() bool { return false }
func (w *WarshipExecution) IsActive() bool               { return w.active }

func (w *WarshipExecution) Init(e *game.Engine, tick int) {
	u, ok := e.Unit(w.unitID)
	if !ok || !u.IsActive() {
		return
	}
	w.e = e
	w.unit = u
	w.rng = e.NewRandom()
	w.active = true
}

func (w *WarshipExecution) Tick(tick int) {
	if !w.unit.IsActive() {
		w.active = false
		return
	}
	owner := w.e.PlayerBySmallID(w.unit.Owner())
	w.captureTradeShips(owner)
	if w.unit.ReadyTick() <= tick {
		w.fire(owner, tick)
	}
	w.patrol()
}

func (w *WarshipExecution) hostile(owner *game.Player, u *game.Unit) bool {
	if u.Owner() == owner.SmallID() {
		return false
	}
	return !w.e.IsAlliedWith(owner, w.e.PlayerBySmallID(u.Owner()))
}

func (w *WarshipExecution) captureTradeShips(owner *game.Player) {
	for _, ship := range w.e.NearbyUnits(w.unit.Tile(), captureRange, core.UnitTradeShip) {
		if w.hostile(owner, ship) {
			w.e.CaptureUnit(ship, owner)
		}
	}
}

// fire launches a shell at the closest hostile warship or transport ship.
func (w *WarshipExecution) fire(owner *game.Player, tick int) {
	e := w.e
	m := e.Map()
	var target *game.Unit
	best := 0
	for _, ship := range e.NearbyUnits(w.unit.Tile(), e.Config().Naval.WarshipRange, core.UnitWarship, core.UnitTransportShip) {
		if !w.hostile(owner, ship) {
			continue
		}
		if d := m.DistSquared(w.unit.Tile(), ship.Tile()); target == nil || d < best {
			target, best = ship, d
		}
	}
	if target == nil {
		return
	}
	e.SetUnitReadyTick(w.unit, tick+e.Config().Naval.WarshipCooldown)
	e.AddExecution(NewShellExecution(w.unit.ID(), target.ID()))
}

// patrol moves one tile along the current route, picking a new ocean
// waypoint near the patrol center when the route runs out.
func (w *WarshipExecution) patrol() {
	e := w.e
	m := e.Map()
	if w.step >= len(w.path)-1 {
		center := w.unit.TargetTile()
		if center == core.InvalidTile {
			center = w.unit.Tile()
		}
		r := e.Config().Naval.WarshipPatrolRange
		cx, cy := m.X(center), m.Y(center)
		x, y := cx+w.rng.NextInt(-r, r+1), cy+w.rng.NextInt(-r, r+1)
		if !m.IsValidCoord(x, y) || !m.IsOcean(m.Ref(x, y)) {
			return
		}
		path, ok := core.WaterPath(m, w.unit.Tile(), m.Ref(x, y), e.Config().Naval.PathSearchLimit)
		if !ok || len(path) < 2 {
			return
		}
		w.path, w.step = path, 0
	}
	w.step++
	e.MoveUnit(w.unit, w.path[w.step])
}

// ShellExecution flies a projectile from a warship to its target and
// damages it on arrival.
type ShellExecution struct {
	sourceID, targetID int

	e      *game.Engine
	shell  *game.Unit
	target *game.Unit
	active bool
}

func NewShellExecution(sourceID, targetID int) *ShellExecution {
	return &ShellExecution{sourceID: sourceID, targetID: targetID}
}

func (s *ShellExecution) ActiveDuringSpawnPhase() bool { return false }
func (s *ShellExecution) IsActive() bool               { return s.active }

func (s *ShellExecution) Init(e *game.Engine, tick int) {
	src, ok := e.Unit(s.sourceID)
	if !ok || !src.IsActive() {
		return
	}
	target, ok := e.Unit(s.targetID)
	if !ok || !target.IsActive() {
		return
	}
	s.e = e
	s.target = target
	s.shell = e.BuildUnit(core.UnitShell, e.PlayerBySmallID(src.Owner()), src.Tile(), game.UnitParams{TargetUnitID: target.ID()})
	s.active = true
}

func (s *ShellExecution) Tick(tick int) {
	e := s.e
	if !s.shell.IsActive() {
		s.active = false
		return
	}
	if !s.target.IsActive() {
		e.DeleteUnit(s.shell)
		s.active = false
		return
	}
	path := core.LinePath(e.Map(), s.shell.Tile(), s.target.Tile())
	next := min(max(e.Config().Naval.ShellSpeed, 1), len(path)-1)
	e.MoveUnit(s.shell, path[next])
	if next == len(path)-1 {
		e.DamageUnit(s.target, e.Config().Naval.ShellDamage)
		e.DeleteUnit(s.shell)
		s.active = false
	}
}

// TradeShipExecution sails between two ports and pays both owners on
// arrival. A captured ship heads for its new owner's closest port.
type TradeShipExecution struct {
	srcPortID, dstPortID int

	e       *game.Engine
	ship    *game.Unit
	dstPort *game.Unit
	owner   core.SmallID
	path    []core.TileRef
	step    int
	active  bool
}

func NewTradeShipExecution(srcPortID, dstPortID int) *TradeShipExecution {
	return &TradeShipExecution{srcPortID: srcPortID, dstPortID: dstPortID}
}

func (t *TradeShipExecution) ActiveDuringSpawnPhase() bool { return false }
func (t *TradeShipExecution) IsActive() bool               { return t.active }

func (t *TradeShipExecution) Init(e *game.Engine, tick int) {
	src, ok := e.Unit(t.srcPortID)
	if !ok || !src.IsActive() {
		return
	}
	dst, ok := e.Unit(t.dstPortID)
	if !ok || !dst.IsActive() {
		return
	}
	t.e = e
	m := e.Map()
	from := closestWater(m, src.Tile(), dst.Tile())
	if from == core.InvalidTile || !t.route(from, dst) {
		return
	}
	t.dstPort = dst
	t.owner = src.Owner()
	dstTile := dst.Tile()
	t.ship = e.BuildUnit(core.UnitTradeShip, e.PlayerBySmallID(src.Owner()), from, game.UnitParams{
		TargetUnitID: dst.ID(),
		TargetTile:   &dstTile,
	})
	t.active = true
}

// route plans a water path from tile to the port's closest water tile.
func (t *TradeShipExecution) route(from core.TileRef, port *game.Unit) bool {
	m := t.e.Map()
	to := closestWater(m, port.Tile(), from)
	if to == core.InvalidTile {
		return false
	}
	path, ok := core.WaterPath(m, from, to, t.e.Config().Naval.PathSearchLimit)
	if !ok {
		return false
	}
	t.path, t.step = path, 0
	return true
}

func (t *TradeShipExecution) Tick(tick int) {
	e := t.e
	if !t.ship.IsActive() {
		t.active = false
		return
	}
	if t.ship.Owner() != t.owner {
		t.owner = t.ship.Owner()
		if !t.redirect() {
			e.DeleteUnit(t.ship)
			t.active = false
			return
		}
	}
	if !t.dstPort.IsActive() || t.dstPort.Owner() == core.NoOwner {
		e.DeleteUnit(t.ship)
		t.active = false
		return
	}

	speed := max(e.Config().Naval.BoatSpeed, 1)
	t.step = min(t.step+speed, len(t.path)-1)
	e.MoveUnit(t.ship, t.path[t.step])
	if t.step == len(t.path)-1 {
		t.arrive()
	}
}

// redirect sends a captured ship to the closest port of its new owner.
func (t *TradeShipExecution) redirect() bool {
	e := t.e
	var best *game.Unit
	bestDist := 0
	for _, port := range e.PlayerUnits(e.PlayerBySmallID(t.owner), core.UnitPort) {
		if d := e.Map().ManhattanDist(port.Tile(), t.ship.Tile()); best == nil || d < bestDist {
			best, bestDist = port, d
		}
	}
	if best == nil || !t.route(t.ship.Tile(), best) {
		return false
	}
	t.dstPort = best
	e.SetUnitTarget(t.ship, best.ID(), best.Tile())
	return true
}

func (t *TradeShipExecution) arrive() {
	e := t.e
	gold := e.Config().Naval.TradeGoldPerTile * len(t.path)
	shipOwner := e.PlayerBySmallID(t.ship.Owner())
	e.AddGold(shipOwner, gold)
	if t.dstPort.Owner() != shipOwner.SmallID() {
		e.AddGold(e.PlayerBySmallID(t.dstPort.Owner()), gold)
	}
	e.DeleteUnit(t.ship)
	t.active = false
}
