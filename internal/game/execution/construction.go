package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// ConstructionExecution pays for a unit and builds it. Structures spend
// their configured construction time as a Construction unit first; ships and
// nukes launch right away.
type ConstructionExecution struct {
	clientID string
	unitType core.UnitType
	cell     core.Cell

	e            *game.Engine
	owner        *game.Player
	tile         core.TileRef
	spawn        core.TileRef
	construction *game.Unit
	ticksLeft    int
	active       bool
}

func NewConstructionExecution(clientID string, unitType core.UnitType, cell core.Cell) *ConstructionExecution {
	return &ConstructionExecution{clientID: clientID, unitType: unitType, cell: cell}
}

func (c *ConstructionExecution) ActiveDuringSpawnPhase() bool { return false }
func (c *ConstructionExecution) IsActive() bool               { return c.active }

func (c *ConstructionExecution) Init(e *game.Engine, tick int) {
	c.e = e
	logger := e.Logger().With().Str("client_id", c.clientID).Str("unit", c.unitType.String()).Logger()

	p, ok := lookupPlayer(e, c.clientID, "build")
	if !ok {
		return
	}
	if c.unitType == core.UnitTransportShip {
		logger.Warn().Msg("Transport ships are launched with boat intents")
		return
	}
	c.owner = p
	c.tile = e.Map().RefOf(c.cell)

	spawn, ok := e.CanBuild(p, c.unitType, c.tile)
	if !ok {
		logger.Debug().Str("cell", c.cell.String()).Msg("Cannot build here")
		return
	}
	if !e.RemoveGold(p, e.UnitCost(c.unitType)) {
		return
	}
	c.spawn = spawn

	c.ticksLeft = e.ConstructionTicks(c.unitType)
	if !c.unitType.IsStructure() || c.ticksLeft <= 0 {
		c.complete()
		return
	}
	c.construction = e.BuildUnit(core.UnitConstruction, p, c.tile, game.UnitParams{ConstructionType: c.unitType})
	c.active = true
}

func (c *ConstructionExecution) Tick(tick int) {
	if !c.construction.IsActive() || c.construction.Owner() != c.owner.SmallID() {
		// destroyed or lost with its tile
		c.active = false
		return
	}
	c.ticksLeft--
	if c.ticksLeft > 0 {
		return
	}
	c.e.DeleteUnit(c.construction)
	c.active = false
	c.complete()
}

func (c *ConstructionExecution) complete() {
	e, p := c.e, c.owner
	switch {
	case c.unitType.IsStructure():
		u := e.BuildUnit(c.unitType, p, c.tile, game.UnitParams{})
		e.AddExecution(NewStructureExecution(u.ID()))

	case c.unitType == core.UnitWarship:
		launch := closestWater(e.Map(), c.spawn, c.tile)
		if launch == core.InvalidTile {
			return
		}
		patrol := c.tile
		u := e.BuildUnit(core.UnitWarship, p, launch, game.UnitParams{TargetTile: &patrol})
		e.AddExecution(NewWarshipExecution(u.ID()))

	case c.unitType.IsNuke():
		if silo, ok := e.UnitAt(c.spawn, core.UnitMissileSilo); ok {
			e.SetUnitReadyTick(silo, e.Ticks()+e.Config().Nukes.SiloCooldown)
		}
		if c.unitType == core.UnitMIRV {
			e.AddExecution(NewMIRVExecution(p.ID(), c.spawn, c.tile))
		} else {
			e.AddExecution(NewNukeExecution(p.ID(), c.unitType, c.spawn, c.tile))
		}
	}
	e.Logger().Debug().
		Str("player_id", string(p.ID())).
		Str("unit", c.unitType.String()).
		Int("tile", int(c.tile)).
		Msg("Unit completed")
}
