package execution

import (
	"sort"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/rules"
)

// defaultAttackDivisor is the share of a player's troops sent when an intent
// does not name a troop count.
const defaultAttackDivisor = 5

func defaultTroops(p *game.Player, requested int) int {
	if requested <= 0 {
		return p.Troops() / defaultAttackDivisor
	}
	return min(requested, p.Troops())
}

// AttackExecution pushes an attacker's frontier into a target's territory,
// or into unowned land, a few tiles per tick.
type AttackExecution struct {
	clientID       string
	targetClientID string
	troops         int

	// set for attacks launched by a landed transport ship
	fromBoat    bool
	attackerID  core.PlayerID
	targetSmall core.SmallID
	sourceTile  core.TileRef

	e             *game.Engine
	attacker      *game.Player
	target        *game.Player
	attack        *game.Attack
	breakAlliance bool
	active        bool

	// beachhead holds the tiles a boat attack has taken; it expands only
	// from there.
	beachhead *core.TileSet
}

// NewAttackExecution creates a land attack. An empty targetClientID attacks
// unowned land; troops <= 0 sends the default share.
func NewAttackExecution(clientID, targetClientID string, troops int) *AttackExecution {
	return &AttackExecution{
		clientID:       clientID,
		targetClientID: targetClientID,
		troops:         troops,
		sourceTile:     core.InvalidTile,
	}
}

// newBoatAttack continues a transport ship landing. The troops were already
// taken from the attacker when the ship left.
func newBoatAttack(attacker core.PlayerID, target core.SmallID, troops int, landing core.TileRef) *AttackExecution {
	return &AttackExecution{
		fromBoat:    true,
		attackerID:  attacker,
		targetSmall: target,
		troops:      troops,
		sourceTile:  landing,
	}
}

func (a *AttackExecution) ActiveDuringSpawnPhase() bool { return false }
func (a *AttackExecution) IsActive() bool               { return a.active }

// AttackID returns the engine id of the attack, or 0 before Init.
func (a *AttackExecution) AttackID() int {
	if a.attack == nil {
		return 0
	}
	return a.attack.ID()
}

func (a *AttackExecution) Init(e *game.Engine, tick int) {
	a.e = e
	if !a.resolve() {
		return
	}
	if a.target != nil && a.target == a.attacker {
		return
	}

	troops := a.troops
	if !a.fromBoat {
		troops = e.RemoveTroops(a.attacker, defaultTroops(a.attacker, a.troops))
	}
	if troops <= 0 {
		return
	}

	if !a.fromBoat {
		if a.mergeIntoExisting(troops) {
			return
		}
		if troops = a.cancelOpposing(troops); troops <= 0 {
			return
		}
	}

	if a.target != nil && e.IsAlliedWith(a.attacker, a.target) {
		a.breakAlliance = true
	}

	if a.fromBoat {
		a.beachhead = core.NewTileSet()
		a.beachhead.Add(a.sourceTile)
	}
	a.attack = e.CreateAttack(a.attacker, a.targetSmallID(), troops, a.sourceTile)
	a.active = true
	e.Logger().Debug().
		Str("attacker", string(a.attacker.ID())).
		Uint16("target", uint16(a.targetSmallID())).
		Int("troops", troops).
		Int("attack_id", a.attack.ID()).
		Msg("Attack started")
}

func (a *AttackExecution) resolve() bool {
	if a.fromBoat {
		a.attacker = a.e.Player(a.attackerID)
		a.target = a.e.PlayerBySmallID(a.targetSmall)
		return a.attacker.IsAlive()
	}
	var ok bool
	if a.attacker, ok = lookupPlayer(a.e, a.clientID, "attack"); !ok {
		return false
	}
	if a.targetClientID != "" {
		if a.target, ok = a.e.PlayerByClientID(a.targetClientID); !ok {
			a.e.Logger().Warn().Str("target", a.targetClientID).Msg("Attack on unknown player ignored")
			return false
		}
	}
	return true
}

func (a *AttackExecution) targetSmallID() core.SmallID {
	if a.target == nil {
		return core.NoOwner
	}
	return a.target.SmallID()
}

// mergeIntoExisting adds troops to a running land attack on the same target.
func (a *AttackExecution) mergeIntoExisting(troops int) bool {
	for _, other := range a.e.OutgoingAttacks(a.attacker) {
		if other.Target() == a.targetSmallID() && other.SourceTile() == core.InvalidTile && !other.Retreating() {
			a.e.SetAttackTroops(other, other.Troops()+troops)
			return true
		}
	}
	return false
}

// cancelOpposing nets troops against land attacks the target runs against
// the attacker and returns what is left.
func (a *AttackExecution) cancelOpposing(troops int) int {
	if a.target == nil {
		return troops
	}
	for _, other := range a.e.OutgoingAttacks(a.target) {
		if troops <= 0 {
			break
		}
		if other.Target() != a.attacker.SmallID() || other.SourceTile() != core.InvalidTile || other.Retreating() {
			continue
		}
		cancelled := min(troops, other.Troops())
		a.e.SetAttackTroops(other, other.Troops()-cancelled)
		troops -= cancelled
	}
	return troops
}

func (a *AttackExecution) Tick(tick int) {
	e := a.e
	if !a.attack.IsActive() {
		a.active = false
		return
	}
	if a.breakAlliance {
		a.breakAlliance = false
		if e.IsAlliedWith(a.attacker, a.target) {
			e.BreakAlliance(a.attacker, a.target)
		}
	}

	switch {
	case !a.attacker.IsAlive():
		a.finish(false)
		return
	case a.attack.Retreating():
		a.finish(true)
		return
	case a.attack.Troops() <= 0:
		a.finish(false)
		return
	case a.target != nil && (!a.target.IsAlive() || e.IsAlliedWith(a.attacker, a.target)):
		a.finish(true)
		return
	}

	frontier := a.frontier()
	if len(frontier) == 0 {
		a.finish(true)
		return
	}

	m := e.Map()
	cfg := e.Config().Attack
	troops := a.attack.Troops()
	budget := rules.TilesPerTick(cfg, troops)
	for _, ref := range frontier {
		if budget == 0 {
			break
		}
		if m.OwnerID(ref) != a.targetSmallID() {
			continue
		}
		var defender *rules.Defender
		if a.target != nil {
			defender = &rules.Defender{
				Troops:  a.target.Troops(),
				Tiles:   a.target.NumTilesOwned(),
				Traitor: a.target.IsTraitor(),
			}
		}
		cost := rules.AttackTileCost(cfg, m.Terrain(ref), m.HasDefenseBonus(ref), m.HasFallout(ref), defender)
		if troops < cost.AttackerLoss {
			e.SetAttackTroops(a.attack, troops)
			a.finish(true)
			return
		}
		troops -= cost.AttackerLoss
		if a.target != nil {
			e.RemoveTroops(a.target, cost.DefenderLoss)
		}
		e.Conquer(a.attacker, ref)
		if a.beachhead != nil {
			a.beachhead.Add(ref)
		}
		budget--
	}
	e.SetAttackTroops(a.attack, troops)
}

// frontier returns the target tiles adjacent to the attacker, those
// surrounded by more of the attacker's tiles first. Ties are broken by the
// tick generator.
func (a *AttackExecution) frontier() []core.TileRef {
	m := a.e.Map()
	rng := a.e.Random()
	targetID := a.targetSmallID()
	attackerID := a.attacker.SmallID()

	seen := core.NewTileSet()
	type candidate struct {
		ref   core.TileRef
		score int
	}
	var candidates []candidate
	a.forEachOrigin(func(border core.TileRef) {
		m.ForEachNeighbor(border, func(n core.TileRef) {
			if !m.IsLand(n) || m.OwnerID(n) != targetID || !seen.Add(n) {
				return
			}
			owned := 0
			m.ForEachNeighbor(n, func(nn core.TileRef) {
				if m.OwnerID(nn) == attackerID {
					owned++
				}
			})
			candidates = append(candidates, candidate{ref: n, score: owned*1000 + rng.NextInt(0, 1000)})
		})
	})
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	out := make([]core.TileRef, len(candidates))
	for i, c := range candidates {
		out[i] = c.ref
	}
	return out
}

// forEachOrigin visits the attacker tiles the attack can expand from.
func (a *AttackExecution) forEachOrigin(fn func(core.TileRef)) {
	if a.beachhead == nil {
		a.attacker.ForEachBorderTile(fn)
		return
	}
	a.beachhead.ForEach(func(ref core.TileRef) {
		if a.attacker.OwnsTile(ref) {
			fn(ref)
		}
	})
}

// finish ends the attack, returning the remaining troops when asked.
func (a *AttackExecution) finish(returnTroops bool) {
	if returnTroops && a.attacker.IsAlive() {
		a.e.AddTroops(a.attacker, a.attack.Troops())
	}
	a.e.EndAttack(a.attack)
	a.active = false
}

// CancelAttackExecution orders one of the player's attacks to retreat.
type CancelAttackExecution struct {
	oneShot
	clientID string
	attackID int
}

func NewCancelAttackExecution(clientID string, attackID int) *CancelAttackExecution {
	return &CancelAttackExecution{clientID: clientID, attackID: attackID}
}

func (c *CancelAttackExecution) ActiveDuringSpawnPhase() bool { return false }

func (c *CancelAttackExecution) Init(e *game.Engine, tick int) {
	c.done = true
	p, ok := lookupPlayer(e, c.clientID, "cancel attack")
	if !ok {
		return
	}
	if !e.CancelAttack(p, c.attackID) {
		e.Logger().Debug().Str("client_id", c.clientID).Int("attack_id", c.attackID).Msg("No attack to cancel")
	}
}
