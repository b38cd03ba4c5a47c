package view

import (
	"slices"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// PlayerView is the read model of one player, replaced wholesale by each
// player record of a diff.
type PlayerView struct {
	data protocol.PlayerUpdate
	name protocol.NameViewData
}

func (p *PlayerView) ID() string            { return p.data.ID }
func (p *PlayerView) ClientID() string      { return p.data.ClientID }
func (p *PlayerView) Name() string          { return p.data.Name }
func (p *PlayerView) Type() core.PlayerType { return p.data.Type }
func (p *PlayerView) SmallID() core.SmallID { return p.data.SmallID }
func (p *PlayerView) IsAlive() bool         { return p.data.IsAlive }
func (p *PlayerView) HasSpawned() bool      { return p.data.HasSpawned }
func (p *PlayerView) IsTraitor() bool       { return p.data.IsTraitor }
func (p *PlayerView) IsDisconnected() bool  { return p.data.IsDisconnected }
func (p *PlayerView) Troops() int           { return p.data.Troops }
func (p *PlayerView) Workers() int          { return p.data.Workers }
func (p *PlayerView) Gold() int             { return p.data.Gold }
func (p *PlayerView) Population() int       { return p.data.Population() }
func (p *PlayerView) TargetTroopRatio() int { return p.data.TargetTroopRatio }
func (p *PlayerView) NumTilesOwned() int    { return p.data.TilesOwned }

// Data returns a copy of the last record received for the player.
func (p *PlayerView) Data() protocol.PlayerUpdate {
	d := p.data
	d.Allies = slices.Clone(d.Allies)
	d.Embargoes = slices.Clone(d.Embargoes)
	d.Targets = slices.Clone(d.Targets)
	d.OutgoingRequests = slices.Clone(d.OutgoingRequests)
	d.OutgoingAttacks = slices.Clone(d.OutgoingAttacks)
	return d
}

// NameLocation is where the player's label should be drawn. ok is false
// until the first placement arrives.
func (p *PlayerView) NameLocation() (protocol.NameViewData, bool) {
	return p.name, p.name.PlayerID != ""
}

func (p *PlayerView) IsAlliedWith(other *PlayerView) bool {
	return other != nil && slices.Contains(p.data.Allies, other.SmallID())
}

func (p *PlayerView) HasEmbargoAgainst(other *PlayerView) bool {
	return other != nil && slices.Contains(p.data.Embargoes, other.SmallID())
}

func (p *PlayerView) IsTargeting(other *PlayerView) bool {
	return other != nil && slices.Contains(p.data.Targets, other.SmallID())
}

func (p *PlayerView) HasPendingRequestTo(other *PlayerView) bool {
	return other != nil && slices.Contains(p.data.OutgoingRequests, other.SmallID())
}

func (p *PlayerView) OutgoingAttacks() []protocol.AttackInfo {
	return slices.Clone(p.data.OutgoingAttacks)
}
