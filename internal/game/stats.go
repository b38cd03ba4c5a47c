package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/rules"
)

// This file contains the read-only player summaries served to queries.

// UnitCount is the number of active units of one type.
type UnitCount struct {
	Type  core.UnitType `msgpack:"type"`
	Count int           `msgpack:"count"`
}

// PlayerStats summarizes one player.
type PlayerStats struct {
	PlayerID        string         `msgpack:"player_id"`
	SmallID         core.SmallID   `msgpack:"small_id"`
	Tiles           int            `msgpack:"tiles"`
	BorderTiles     int            `msgpack:"border_tiles"`
	Troops          int            `msgpack:"troops"`
	Workers         int            `msgpack:"workers"`
	Gold            int            `msgpack:"gold"`
	MaxPopulation   int            `msgpack:"max_population"`
	Units           []UnitCount    `msgpack:"units,omitempty"`
	Allies          []core.SmallID `msgpack:"allies,omitempty"`
	Neighbors       []core.SmallID `msgpack:"neighbors,omitempty"`
	IncomingAttacks int            `msgpack:"incoming_attacks"`
	OutgoingAttacks int            `msgpack:"outgoing_attacks"`
	IsTraitor       bool           `msgpack:"is_traitor"`
	LandSharePct    int            `msgpack:"land_share_pct"`
}

// PlayerStats computes the summary of p at the current tick.
func (e *Engine) PlayerStats(p *Player) PlayerStats {
	stats := PlayerStats{
		PlayerID:        string(p.id),
		SmallID:         p.smallID,
		Tiles:           p.tiles.Len(),
		BorderTiles:     p.borderTiles.Len(),
		Troops:          p.troops,
		Workers:         p.workers,
		Gold:            p.gold,
		Allies:          e.Allies(p),
		IncomingAttacks: len(e.IncomingAttacks(p)),
		OutgoingAttacks: len(e.OutgoingAttacks(p)),
		IsTraitor:       p.isTraitor,
	}

	counts := make(map[core.UnitType]int)
	for _, u := range e.PlayerUnits(p) {
		counts[u.unitType]++
	}
	for _, t := range core.AllUnitTypes {
		if n := counts[t]; n > 0 {
			stats.Units = append(stats.Units, UnitCount{Type: t, Count: n})
		}
	}
	stats.MaxPopulation = rules.MaxPopulation(e.cfg.Population, stats.Tiles, counts[core.UnitCity])

	for _, n := range e.Neighbors(p) {
		stats.Neighbors = append(stats.Neighbors, n.smallID)
	}
	if land := e.gameMap.NumLandTiles(); land > 0 {
		stats.LandSharePct = stats.Tiles * 100 / land
	}
	return stats
}
