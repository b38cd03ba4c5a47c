package rules

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/common"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// Defender describes the owner of a tile under attack.
type Defender struct {
	Troops  int
	Tiles   int
	Traitor bool
}

// TileCost is the price of taking one tile.
type TileCost struct {
	AttackerLoss int
	DefenderLoss int
}

func terrainPercent(cfg config.AttackConfig, terrain core.TerrainType) int {
	switch terrain {
	case core.TerrainHighland:
		return cfg.HighlandPercent
	case core.TerrainMountain:
		return cfg.MountainPercent
	default:
		return 100
	}
}

// AttackTileCost returns what the attacker and the defender lose when one
// tile changes hands. defender is nil for unowned land.
func AttackTileCost(cfg config.AttackConfig, terrain core.TerrainType, defenseBonus, fallout bool, defender *Defender) TileCost {
	if defender == nil {
		loss := common.Percent(max(cfg.TerraNulliusCost, 1), terrainPercent(cfg, terrain))
		return TileCost{AttackerLoss: max(loss, 1)}
	}

	density := defender.Troops / max(defender.Tiles, 1)
	loss := common.Percent(max(density, 1), terrainPercent(cfg, terrain))
	if defenseBonus {
		loss = common.Percent(loss, cfg.DefenseBonusPercent)
	}
	if fallout {
		loss = common.Percent(loss, cfg.FalloutPercent)
	}
	if defender.Traitor {
		loss = common.Percent(loss, cfg.TraitorPercent)
	}
	return TileCost{
		AttackerLoss: max(loss, 1),
		DefenderLoss: min(density, defender.Troops),
	}
}

// TilesPerTick returns how many frontier tiles an attack of the given size
// may take in one tick.
func TilesPerTick(cfg config.AttackConfig, attackTroops int) int {
	if attackTroops <= 0 {
		return 0
	}
	extra := attackTroops / cfg.TroopsPerExtraTile
	return common.Clamp(cfg.MinTilesPerTick+extra, cfg.MinTilesPerTick, cfg.MaxTilesPerTick)
}

// NukeRadii returns the inner (total destruction) and outer (partial) blast
// radius of a nuke type.
func NukeRadii(cfg config.NukeConfig, unit core.UnitType) (inner, outer int) {
	switch unit {
	case core.UnitHydrogenBomb:
		return cfg.HydroInnerRadius, cfg.HydroOuterRadius
	case core.UnitAtomBomb, core.UnitMIRVWarhead:
		return cfg.AtomInnerRadius, cfg.AtomOuterRadius
	}
	return 0, 0
}
