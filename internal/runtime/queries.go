package runtime

import (
	"fmt"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// QueryType selects one of the read-only questions the worker answers
// between turns.
type QueryType string

const (
	QueryBorderTiles   QueryType = "border_tiles"
	QuerySharesBorder  QueryType = "shares_border"
	QueryPlayerActions QueryType = "player_actions"
	QueryPlayerProfile QueryType = "player_profile"
)

// Query names players by engine player id.
type Query struct {
	Type     QueryType `msgpack:"type"`
	PlayerID string    `msgpack:"player_id"`
	// shares_border
	OtherID string `msgpack:"other_id,omitempty"`
	// player_actions
	Cell core.Cell `msgpack:"cell,omitempty"`
}

func BorderTilesQuery(playerID string) Query {
	return Query{Type: QueryBorderTiles, PlayerID: playerID}
}

func SharesBorderQuery(a, b string) Query {
	return Query{Type: QuerySharesBorder, PlayerID: a, OtherID: b}
}

func PlayerActionsQuery(playerID string, cell core.Cell) Query {
	return Query{Type: QueryPlayerActions, PlayerID: playerID, Cell: cell}
}

func PlayerProfileQuery(playerID string) Query {
	return Query{Type: QueryPlayerProfile, PlayerID: playerID}
}

// QueryResult carries the answer in the field matching the query type.
type QueryResult struct {
	Tick         int               `msgpack:"tick"`
	BorderTiles  []core.TileRef    `msgpack:"border_tiles,omitempty"`
	SharesBorder bool              `msgpack:"shares_border,omitempty"`
	Actions      *PlayerActions    `msgpack:"actions,omitempty"`
	Profile      *game.PlayerStats `msgpack:"profile,omitempty"`
}

// PlayerActions lists what a player could do with one tile right now.
type PlayerActions struct {
	CanAttack      bool               `msgpack:"can_attack"`
	CanBoat        bool               `msgpack:"can_boat"`
	BuildableUnits []BuildableUnit    `msgpack:"buildable_units"`
	Interaction    *PlayerInteraction `msgpack:"interaction,omitempty"`
}

type BuildableUnit struct {
	Type     core.UnitType `msgpack:"type"`
	CanBuild bool          `msgpack:"can_build"`
	Cost     int           `msgpack:"cost"`
}

// PlayerInteraction is filled when the tile belongs to another player.
type PlayerInteraction struct {
	TargetID               string `msgpack:"target_id"`
	SharesBorder           bool   `msgpack:"shares_border"`
	IsAllied               bool   `msgpack:"is_allied"`
	CanSendAllianceRequest bool   `msgpack:"can_send_alliance_request"`
	CanBreakAlliance       bool   `msgpack:"can_break_alliance"`
	CanDonate              bool   `msgpack:"can_donate"`
	CanEmbargo             bool   `msgpack:"can_embargo"`
	CanTarget              bool   `msgpack:"can_target"`
}

// answerQuery never mutates e. Unknown players are request errors, not
// simulation failures.
func answerQuery(e *game.Engine, q Query) (*QueryResult, error) {
	p, err := queryPlayer(e, q.PlayerID)
	if err != nil {
		return nil, err
	}
	res := &QueryResult{Tick: e.Ticks()}

	switch q.Type {
	case QueryBorderTiles:
		res.BorderTiles = p.BorderTiles()

	case QuerySharesBorder:
		other, err := queryPlayer(e, q.OtherID)
		if err != nil {
			return nil, err
		}
		res.SharesBorder = e.SharesBorder(p, other)

	case QueryPlayerActions:
		if !q.Cell.IsValid(e.Map().Width(), e.Map().Height()) {
			return nil, fmt.Errorf("player actions: cell %s: %w", q.Cell, core.ErrOutOfBounds)
		}
		res.Actions = playerActions(e, p, e.Map().RefOf(q.Cell))

	case QueryPlayerProfile:
		stats := e.PlayerStats(p)
		res.Profile = &stats

	default:
		return nil, fmt.Errorf("query %q: %w", q.Type, ErrUnknownMessage)
	}
	return res, nil
}

func queryPlayer(e *game.Engine, id string) (*game.Player, error) {
	if !e.HasPlayer(core.PlayerID(id)) {
		return nil, fmt.Errorf("query player %q: %w", id, core.ErrUnknownPlayer)
	}
	return e.Player(core.PlayerID(id)), nil
}

func playerActions(e *game.Engine, p *game.Player, tile core.TileRef) *PlayerActions {
	m := e.Map()
	other := e.Owner(tile)
	canAct := p.IsAlive() && !e.InSpawnPhase()
	actions := &PlayerActions{}

	if canAct && m.IsLand(tile) && other != p {
		if other == nil {
			actions.CanAttack = e.BordersUnowned(p)
		} else {
			actions.CanAttack = !e.IsAlliedWith(p, other) && e.SharesBorder(p, other)
		}
		_, actions.CanBoat = e.CanBuild(p, core.UnitTransportShip, tile)
	}

	for _, t := range core.AllUnitTypes {
		if !t.Buildable() || t == core.UnitTransportShip {
			continue
		}
		_, ok := e.CanBuild(p, t, tile)
		actions.BuildableUnits = append(actions.BuildableUnits, BuildableUnit{
			Type:     t,
			CanBuild: canAct && ok,
			Cost:     e.UnitCost(t),
		})
	}

	if other != nil && other != p {
		allied := e.IsAlliedWith(p, other)
		actions.Interaction = &PlayerInteraction{
			TargetID:               string(other.ID()),
			SharesBorder:           e.SharesBorder(p, other),
			IsAllied:               allied,
			CanSendAllianceRequest: canAct && e.CanSendAllianceRequest(p, other),
			CanBreakAlliance:       allied,
			CanDonate:              canAct && allied,
			CanEmbargo:             !p.HasEmbargoAgainst(other),
			CanTarget:              canAct && !allied,
		}
	}
	return actions
}
