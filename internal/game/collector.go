package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// UpdateCollector turns engine events into the per-tick diff. Entity events
// only mark the entity dirty; the record is built once at flush time from
// the final state, so each changed entity appears exactly once per diff.
type UpdateCollector struct {
	tiles   *core.TileSet
	units   []int
	unitSet map[int]struct{}
	players []core.SmallID
	seenPl  map[core.SmallID]struct{}
	pending protocol.Updates
}

func NewUpdateCollector() *UpdateCollector {
	return &UpdateCollector{
		tiles:   core.NewTileSet(),
		unitSet: make(map[int]struct{}),
		seenPl:  make(map[core.SmallID]struct{}),
	}
}

func (c *UpdateCollector) ID() string { return "update_collector" }

func (c *UpdateCollector) InterestedIn(eventType string) bool {
	return eventType != events.TypeStateTransition
}

func (c *UpdateCollector) HandleEvent(event events.Event) {
	switch ev := event.(type) {
	case *events.TileChangedEvent:
		c.tiles.Add(ev.Tile)
	case *events.UnitChangedEvent:
		if _, ok := c.unitSet[ev.UnitID]; !ok {
			c.unitSet[ev.UnitID] = struct{}{}
			c.units = append(c.units, ev.UnitID)
		}
	case *events.PlayerChangedEvent:
		c.markPlayer(ev.Player)
	case *events.PlayerEliminatedEvent:
		c.markPlayer(ev.Player)
	case *events.AllianceRequestedEvent:
		c.pending.AllianceRequests = append(c.pending.AllianceRequests, protocol.AllianceRequestUpdate{
			Requestor: ev.Requestor,
			Recipient: ev.Recipient,
			CreatedAt: ev.Tick(),
		})
	case *events.AllianceRepliedEvent:
		c.pending.AllianceRequestReplies = append(c.pending.AllianceRequestReplies, protocol.AllianceRequestReplyUpdate{
			Requestor: ev.Requestor,
			Recipient: ev.Recipient,
			Accepted:  ev.Accepted,
		})
	case *events.AllianceFormedEvent:
		c.pending.Alliances = append(c.pending.Alliances, protocol.AllianceUpdate{
			ID:        ev.AllianceID,
			Requestor: ev.Requestor,
			Recipient: ev.Recipient,
			CreatedAt: ev.Tick(),
		})
	case *events.AllianceBrokenEvent:
		c.pending.BrokeAlliances = append(c.pending.BrokeAlliances, protocol.BrokeAllianceUpdate{
			Traitor:  ev.Traitor,
			Betrayed: ev.Betrayed,
		})
	case *events.AllianceExpiredEvent:
		c.pending.AlliancesExpired = append(c.pending.AlliancesExpired, protocol.AllianceExpiredUpdate{
			Player1: ev.Player1,
			Player2: ev.Player2,
		})
	case *events.TargetPlayerEvent:
		c.pending.TargetPlayers = append(c.pending.TargetPlayers, protocol.TargetPlayerUpdate{
			Player: ev.Player,
			Target: ev.Target,
		})
	case *events.EmojiEvent:
		c.pending.Emojis = append(c.pending.Emojis, protocol.EmojiUpdate{
			Sender:    ev.Sender,
			Recipient: ev.Recipient,
			Emoji:     ev.Emoji,
			CreatedAt: ev.Tick(),
		})
	case *events.DisplayMessageEvent:
		c.pending.DisplayEvents = append(c.pending.DisplayEvents, protocol.DisplayEventUpdate{
			Message:     ev.Message,
			MessageType: ev.MessageType,
			Player:      ev.Player,
		})
	case *events.PlayerWonEvent:
		c.pending.Wins = append(c.pending.Wins, protocol.WinUpdate{Winner: ev.Winner})
	case *events.TickHashedEvent:
		c.pending.Hashes = append(c.pending.Hashes, protocol.HashUpdate{Tick: ev.Tick(), Hash: ev.Hash})
	}
}

func (c *UpdateCollector) markPlayer(id core.SmallID) {
	if _, ok := c.seenPl[id]; !ok {
		c.seenPl[id] = struct{}{}
		c.players = append(c.players, id)
	}
}

// Flush builds the diff for tick from the current state of e and resets the
// collector.
func (c *UpdateCollector) Flush(e *Engine, tick int) *protocol.GameUpdateViewData {
	gu := &protocol.GameUpdateViewData{
		Tick:    tick,
		Updates: c.pending,
	}

	if c.tiles.Len() > 0 {
		gu.PackedTileUpdates = make([]uint64, 0, c.tiles.Len())
		c.tiles.ForEach(func(ref core.TileRef) {
			gu.PackedTileUpdates = append(gu.PackedTileUpdates, protocol.PackMapTile(e.gameMap, ref))
		})
	}
	for _, id := range c.units {
		if u, ok := e.unitsByID[id]; ok {
			gu.Updates.Units = append(gu.Updates.Units, e.unitUpdate(u))
		}
	}
	for _, id := range c.players {
		gu.Updates.Players = append(gu.Updates.Players, e.playerUpdate(e.PlayerBySmallID(id)))
	}
	for i := range gu.Updates.Wins {
		gu.Updates.Wins[i].WinnerID = string(e.PlayerBySmallID(gu.Updates.Wins[i].Winner).id)
	}

	c.reset()
	return gu
}

func (c *UpdateCollector) reset() {
	c.tiles = core.NewTileSet()
	c.units = nil
	c.players = nil
	clear(c.unitSet)
	clear(c.seenPl)
	c.pending = protocol.Updates{}
}

func (e *Engine) unitUpdate(u *Unit) protocol.UnitUpdate {
	return protocol.UnitUpdate{
		ID:               u.id,
		Type:             u.unitType,
		Owner:            u.owner,
		LastOwner:        u.lastOwner,
		Tile:             u.tile,
		LastTile:         u.lastTile,
		Health:           u.health,
		Troops:           u.troops,
		IsActive:         u.active,
		ConstructionType: u.constructionType,
		TargetUnitID:     u.targetUnitID,
		TargetTile:       u.targetTile,
		ReadyTick:        u.readyTick,
	}
}

func (e *Engine) playerUpdate(p *Player) protocol.PlayerUpdate {
	pu := protocol.PlayerUpdate{
		ID:               string(p.id),
		ClientID:         p.clientID,
		Name:             p.name,
		Type:             p.playerType,
		SmallID:          p.smallID,
		IsAlive:          p.IsAlive(),
		HasSpawned:       p.hasSpawned,
		IsDisconnected:   p.disconnected,
		IsTraitor:        p.isTraitor,
		Troops:           p.troops,
		Workers:          p.workers,
		Gold:             p.gold,
		TargetTroopRatio: p.targetTroopRatio,
		TilesOwned:       p.tiles.Len(),
		Allies:           e.Allies(p),
		Embargoes:        p.Embargoes(),
		Targets:          p.Targets(e.ticks, e.cfg.Alliance.TargetDurationTicks),
		OutgoingRequests: e.OutgoingAllianceRequests(p),
	}
	for _, a := range e.OutgoingAttacks(p) {
		pu.OutgoingAttacks = append(pu.OutgoingAttacks, protocol.AttackInfo{ID: a.id, Target: a.target, Troops: a.troops})
	}
	return pu
}
