package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
)

// Owner returns the owner of ref, or nil when the tile is unowned.
func (e *Engine) Owner(ref core.TileRef) *Player {
	return e.PlayerBySmallID(e.gameMap.OwnerID(ref))
}

// Conquer transfers ref to p. Water tiles cannot be owned.
func (e *Engine) Conquer(p *Player, ref core.TileRef) {
	if !e.gameMap.IsLand(ref) {
		core.Fatalf("conquer", "tile %d: %w", ref, core.ErrWaterTile)
	}
	prevID := e.gameMap.OwnerID(ref)
	if prevID == p.smallID {
		return
	}
	if prev := e.PlayerBySmallID(prevID); prev != nil {
		prev.tiles.Remove(ref)
		prev.borderTiles.Remove(ref)
		prev.lastTileChange = e.ticks
		e.markPlayer(prev)
	}

	e.gameMap.SetOwnerID(ref, p.smallID)
	p.tiles.Add(ref)
	p.lastTileChange = e.ticks
	e.markPlayer(p)

	e.publish(events.NewTileChangedEvent(e.gameID, e.ticks, ref))
	e.refreshBorders(ref)
}

// Relinquish makes ref unowned. The tile must be owned land.
func (e *Engine) Relinquish(ref core.TileRef) {
	if !e.gameMap.IsLand(ref) {
		core.Fatalf("relinquish", "tile %d: %w", ref, core.ErrWaterTile)
	}
	prev := e.Owner(ref)
	if prev == nil {
		core.Fatalf("relinquish", "tile %d: %w", ref, core.ErrTileNotOwned)
	}
	prev.tiles.Remove(ref)
	prev.borderTiles.Remove(ref)
	prev.lastTileChange = e.ticks
	e.markPlayer(prev)

	e.gameMap.SetOwnerID(ref, core.NoOwner)
	e.publish(events.NewTileChangedEvent(e.gameID, e.ticks, ref))
	e.refreshBorders(ref)
}

func (e *Engine) refreshBorders(ref core.TileRef) {
	e.updateBorder(ref)
	e.gameMap.ForEachNeighbor(ref, e.updateBorder)
}

// updateBorder recomputes the border bit of ref: an owned tile is a border
// tile when at least one neighbor has a different owner or none.
func (e *Engine) updateBorder(ref core.TileRef) {
	m := e.gameMap
	owner := m.OwnerID(ref)
	border := false
	if owner != core.NoOwner {
		m.ForEachNeighbor(ref, func(n core.TileRef) {
			if m.OwnerID(n) != owner {
				border = true
			}
		})
		p := e.PlayerBySmallID(owner)
		if border {
			p.borderTiles.Add(ref)
		} else {
			p.borderTiles.Remove(ref)
		}
	}
	if m.IsBorder(ref) != border {
		m.SetBorder(ref, border)
		e.publish(events.NewTileChangedEvent(e.gameID, e.ticks, ref))
	}
}

func (e *Engine) SetFallout(ref core.TileRef, v bool) {
	if e.gameMap.HasFallout(ref) != v {
		e.gameMap.SetFallout(ref, v)
		e.publish(events.NewTileChangedEvent(e.gameID, e.ticks, ref))
	}
}

func (e *Engine) SetDefenseBonus(ref core.TileRef, v bool) {
	if e.gameMap.HasDefenseBonus(ref) != v {
		e.gameMap.SetDefenseBonus(ref, v)
		e.publish(events.NewTileChangedEvent(e.gameID, e.ticks, ref))
	}
}

// SharesBorder reports whether any tile of a touches a tile of b.
func (e *Engine) SharesBorder(a, b *Player) bool {
	found := false
	a.borderTiles.ForEach(func(ref core.TileRef) {
		if found {
			return
		}
		e.gameMap.ForEachNeighbor(ref, func(n core.TileRef) {
			if e.gameMap.OwnerID(n) == b.smallID {
				found = true
			}
		})
	})
	return found
}

// Neighbors returns the players whose territory touches p's, in small id
// order.
func (e *Engine) Neighbors(p *Player) []*Player {
	seen := make([]bool, len(e.players)+1)
	p.borderTiles.ForEach(func(ref core.TileRef) {
		e.gameMap.ForEachNeighbor(ref, func(n core.TileRef) {
			if id := e.gameMap.OwnerID(n); id != core.NoOwner && id != p.smallID {
				seen[id] = true
			}
		})
	})
	var out []*Player
	for id, ok := range seen {
		if ok {
			out = append(out, e.players[id-1])
		}
	}
	return out
}

// BordersUnowned reports whether p touches unowned land.
func (e *Engine) BordersUnowned(p *Player) bool {
	found := false
	p.borderTiles.ForEach(func(ref core.TileRef) {
		if found {
			return
		}
		e.gameMap.ForEachNeighbor(ref, func(n core.TileRef) {
			if e.gameMap.IsLand(n) && !e.gameMap.HasOwner(n) {
				found = true
			}
		})
	})
	return found
}
