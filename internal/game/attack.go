package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// Attack is the engine-side record of troops committed against a target.
// Target core.NoOwner attacks unowned land. The execution driving the attack
// reads Retreating to learn about cancellation.
type Attack struct {
	id         int
	attacker   core.SmallID
	target     core.SmallID
	troops     int
	sourceTile core.TileRef
	retreating bool
	active     bool
}

func (a *Attack) ID() int                  { return a.id }
func (a *Attack) Attacker() core.SmallID   { return a.attacker }
func (a *Attack) Target() core.SmallID     { return a.target }
func (a *Attack) Troops() int              { return a.troops }
func (a *Attack) SourceTile() core.TileRef { return a.sourceTile }
func (a *Attack) Retreating() bool         { return a.retreating }
func (a *Attack) IsActive() bool           { return a.active }

// CreateAttack registers an attack. sourceTile is core.InvalidTile for land
// attacks launched from the attacker's border.
func (e *Engine) CreateAttack(attacker *Player, target core.SmallID, troops int, sourceTile core.TileRef) *Attack {
	e.nextAttackID++
	a := &Attack{
		id:         e.nextAttackID,
		attacker:   attacker.smallID,
		target:     target,
		troops:     troops,
		sourceTile: sourceTile,
		active:     true,
	}
	e.attacks = append(e.attacks, a)
	e.markPlayer(attacker)
	return a
}

func (e *Engine) SetAttackTroops(a *Attack, troops int) {
	if a.troops != troops {
		a.troops = max(troops, 0)
		e.markPlayer(e.PlayerBySmallID(a.attacker))
	}
}

// EndAttack removes a from the registry.
func (e *Engine) EndAttack(a *Attack) {
	if !a.active {
		return
	}
	a.active = false
	for i, other := range e.attacks {
		if other == a {
			e.attacks = append(e.attacks[:i], e.attacks[i+1:]...)
			break
		}
	}
	e.markPlayer(e.PlayerBySmallID(a.attacker))
}

// CancelAttack asks p's attack with id to retreat. It reports whether such an
// attack exists.
func (e *Engine) CancelAttack(p *Player, id int) bool {
	for _, a := range e.attacks {
		if a.id == id && a.attacker == p.smallID {
			a.retreating = true
			return true
		}
	}
	return false
}

// OutgoingAttacks returns p's active attacks in creation order.
func (e *Engine) OutgoingAttacks(p *Player) []*Attack {
	var out []*Attack
	for _, a := range e.attacks {
		if a.attacker == p.smallID {
			out = append(out, a)
		}
	}
	return out
}

// IncomingAttacks returns the active attacks targeting p.
func (e *Engine) IncomingAttacks(p *Player) []*Attack {
	var out []*Attack
	for _, a := range e.attacks {
		if a.target == p.smallID {
			out = append(out, a)
		}
	}
	return out
}
