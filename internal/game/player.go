package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/rules"
)

// PlayerInfo describes a player before it joins the game.
type PlayerInfo struct {
	ID       core.PlayerID
	ClientID string
	Name     string
	Type     core.PlayerType
}

type target struct {
	player core.SmallID
	tick   int
}

// Player is the engine's record of one participant. It has no reference back
// to the engine; all mutation goes through Engine methods so every change
// reaches the update stream.
type Player struct {
	id         core.PlayerID
	clientID   string
	name       string
	playerType core.PlayerType
	smallID    core.SmallID
	idHash     uint64

	troops           int
	workers          int
	gold             int
	targetTroopRatio int

	tiles       *core.TileSet
	borderTiles *core.TileSet

	hasSpawned     bool
	isTraitor      bool
	disconnected   bool
	embargoes      []core.SmallID
	targets        []target
	lastTileChange int
}

func (p *Player) ID() core.PlayerID     { return p.id }
func (p *Player) ClientID() string      { return p.clientID }
func (p *Player) Name() string          { return p.name }
func (p *Player) Type() core.PlayerType { return p.playerType }
func (p *Player) SmallID() core.SmallID { return p.smallID }
func (p *Player) Troops() int           { return p.troops }
func (p *Player) Workers() int          { return p.workers }
func (p *Player) Gold() int             { return p.gold }
func (p *Player) Population() int       { return p.troops + p.workers }
func (p *Player) TargetTroopRatio() int { return p.targetTroopRatio }
func (p *Player) NumTilesOwned() int    { return p.tiles.Len() }
func (p *Player) HasSpawned() bool      { return p.hasSpawned }
func (p *Player) IsTraitor() bool       { return p.isTraitor }
func (p *Player) IsDisconnected() bool  { return p.disconnected }
func (p *Player) LastTileChange() int   { return p.lastTileChange }

// IsAlive reports whether the player owns at least one tile.
func (p *Player) IsAlive() bool { return p.tiles.Len() > 0 }

func (p *Player) OwnsTile(ref core.TileRef) bool { return p.tiles.Has(ref) }

// Tiles returns a copy of the owned tiles in deterministic order.
func (p *Player) Tiles() []core.TileRef { return p.tiles.Slice() }

// BorderTiles returns a copy of the owned tiles that touch another owner.
func (p *Player) BorderTiles() []core.TileRef { return p.borderTiles.Slice() }

func (p *Player) NumBorderTiles() int { return p.borderTiles.Len() }

// ForEachTile iterates owned tiles without copying. fn must not change
// ownership.
func (p *Player) ForEachTile(fn func(core.TileRef)) { p.tiles.ForEach(fn) }

// ForEachBorderTile iterates border tiles without copying. fn must not change
// ownership.
func (p *Player) ForEachBorderTile(fn func(core.TileRef)) { p.borderTiles.ForEach(fn) }

func (p *Player) Embargoes() []core.SmallID {
	return append([]core.SmallID(nil), p.embargoes...)
}

func (p *Player) HasEmbargoAgainst(other *Player) bool {
	for _, id := range p.embargoes {
		if id == other.smallID {
			return true
		}
	}
	return false
}

// Targets returns the players p marked within the last duration ticks.
func (p *Player) Targets(now, duration int) []core.SmallID {
	var out []core.SmallID
	for _, t := range p.targets {
		if now-t.tick < duration {
			out = append(out, t.player)
		}
	}
	return out
}

// AddPlayer registers a new player and assigns it the next small id.
func (e *Engine) AddPlayer(info PlayerInfo) *Player {
	if _, ok := e.playersByID[info.ID]; ok {
		core.Fatalf("add player", "%s: %w", info.ID, core.ErrDuplicatePlayer)
	}
	if len(e.players) >= int(core.MaxSmallID) {
		core.Fatal("add player", core.ErrSmallIDExhausted)
	}

	p := &Player{
		id:               info.ID,
		clientID:         info.ClientID,
		name:             info.Name,
		playerType:       info.Type,
		smallID:          core.SmallID(len(e.players) + 1),
		idHash:           StableHash(string(info.ID)),
		targetTroopRatio: e.cfg.Population.DefaultTroopRatio,
		tiles:            core.NewTileSet(),
		borderTiles:      core.NewTileSet(),
	}
	e.players = append(e.players, p)
	e.playersByID[p.id] = p
	if p.clientID != "" {
		e.playersByClient[p.clientID] = p
	}

	e.logger.Debug().
		Str("player_id", string(p.id)).
		Uint16("small_id", uint16(p.smallID)).
		Str("type", p.playerType.String()).
		Msg("Player added")
	e.markPlayer(p)
	return p
}

// Player returns the player with id. An unknown id is fatal.
func (e *Engine) Player(id core.PlayerID) *Player {
	p, ok := e.playersByID[id]
	if !ok {
		core.Fatalf("player lookup", "%s: %w", id, core.ErrUnknownPlayer)
	}
	return p
}

func (e *Engine) HasPlayer(id core.PlayerID) bool {
	_, ok := e.playersByID[id]
	return ok
}

func (e *Engine) PlayerByClientID(clientID string) (*Player, bool) {
	p, ok := e.playersByClient[clientID]
	return p, ok
}

// PlayerBySmallID returns nil for core.NoOwner. Any other unknown id is fatal.
func (e *Engine) PlayerBySmallID(id core.SmallID) *Player {
	if id == core.NoOwner {
		return nil
	}
	if int(id) > len(e.players) {
		core.Fatalf("player lookup", "small id %d: %w", id, core.ErrUnknownPlayer)
	}
	return e.players[id-1]
}

// Players returns the living players in creation order.
func (e *Engine) Players() []*Player {
	out := make([]*Player, 0, len(e.players))
	for _, p := range e.players {
		if p.IsAlive() {
			out = append(out, p)
		}
	}
	return out
}

// AllPlayers returns every player ever added, in creation order.
func (e *Engine) AllPlayers() []*Player {
	return append([]*Player(nil), e.players...)
}

func (e *Engine) markPlayer(p *Player) {
	e.publish(events.NewPlayerChangedEvent(e.gameID, e.ticks, p.smallID))
}

// AddTroops adds n troops. Negative n removes, never below zero.
func (e *Engine) AddTroops(p *Player, n int) {
	if n == 0 {
		return
	}
	p.troops = max(0, p.troops+n)
	e.markPlayer(p)
}

// RemoveTroops removes up to n troops and returns how many were removed.
func (e *Engine) RemoveTroops(p *Player, n int) int {
	n = min(max(n, 0), p.troops)
	if n > 0 {
		p.troops -= n
		e.markPlayer(p)
	}
	return n
}

func (e *Engine) SetTroops(p *Player, n int) {
	n = max(n, 0)
	if p.troops != n {
		p.troops = n
		e.markPlayer(p)
	}
}

func (e *Engine) AddWorkers(p *Player, n int) {
	if n == 0 {
		return
	}
	p.workers = max(0, p.workers+n)
	e.markPlayer(p)
}

func (e *Engine) AddGold(p *Player, n int) {
	if n == 0 {
		return
	}
	p.gold = max(0, p.gold+n)
	e.markPlayer(p)
}

// RemoveGold removes n gold if the player can afford it.
func (e *Engine) RemoveGold(p *Player, n int) bool {
	if n < 0 || p.gold < n {
		return false
	}
	if n > 0 {
		p.gold -= n
		e.markPlayer(p)
	}
	return true
}

// SetTargetTroopRatio clamps ratio into [0, 100].
func (e *Engine) SetTargetTroopRatio(p *Player, ratio int) {
	ratio = rules.ClampTroopRatio(ratio)
	if p.targetTroopRatio != ratio {
		p.targetTroopRatio = ratio
		e.markPlayer(p)
	}
}

func (e *Engine) MarkSpawned(p *Player) {
	if !p.hasSpawned {
		p.hasSpawned = true
		e.markPlayer(p)
	}
}

func (e *Engine) MarkDisconnected(p *Player, disconnected bool) {
	if p.disconnected != disconnected {
		p.disconnected = disconnected
		e.markPlayer(p)
	}
}

func (e *Engine) AddEmbargo(p, other *Player) {
	if p == other || p.HasEmbargoAgainst(other) {
		return
	}
	p.embargoes = append(p.embargoes, other.smallID)
	e.markPlayer(p)
}

func (e *Engine) RemoveEmbargo(p, other *Player) {
	for i, id := range p.embargoes {
		if id == other.smallID {
			p.embargoes = append(p.embargoes[:i], p.embargoes[i+1:]...)
			e.markPlayer(p)
			return
		}
	}
}

// expireTargets drops targets whose duration ran out at the current tick so
// the owner shows up in this tick's diff.
func (e *Engine) expireTargets() {
	for _, p := range e.players {
		if len(p.targets) == 0 {
			continue
		}
		kept := p.targets[:0]
		for _, t := range p.targets {
			if e.ticks-t.tick < e.cfg.Alliance.TargetDurationTicks {
				kept = append(kept, t)
			}
		}
		if len(kept) != len(p.targets) {
			p.targets = kept
			e.markPlayer(p)
		}
	}
}

// SetTarget marks target as p's target for the configured duration.
func (e *Engine) SetTarget(p, other *Player) {
	kept := p.targets[:0]
	for _, t := range p.targets {
		if e.ticks-t.tick < e.cfg.Alliance.TargetDurationTicks && t.player != other.smallID {
			kept = append(kept, t)
		}
	}
	p.targets = append(kept, target{player: other.smallID, tick: e.ticks})
	e.markPlayer(p)
	e.publish(events.NewTargetPlayerEvent(e.gameID, e.ticks, p.smallID, other.smallID))
}

// EliminatePlayer removes what is left of a player that owns no tiles. Units
// are deleted and its attacks end.
func (e *Engine) EliminatePlayer(p *Player) {
	for _, u := range e.units {
		if u.active && u.owner == p.smallID {
			e.DeleteUnit(u)
		}
	}
	for _, a := range e.attacks {
		if a.active && (a.attacker == p.smallID || a.target == p.smallID) {
			e.EndAttack(a)
		}
	}
	for _, r := range append([]*AllianceRequest(nil), e.allianceRequests...) {
		if r.requestor == p.smallID || r.recipient == p.smallID {
			e.removeAllianceRequest(r)
		}
	}
	e.SetTroops(p, 0)
	e.logger.Info().Str("player_id", string(p.id)).Int("tick", e.ticks).Msg("Player eliminated")
	e.publish(events.NewPlayerEliminatedEvent(e.gameID, e.ticks, p.smallID))
}
