package rules

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/common"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
)

// MaxPopulation is the population cap for a player of the given size.
func MaxPopulation(cfg config.PopulationConfig, tiles, cities int) int {
	return cfg.BaseMax + tiles*cfg.PerTile + cities*cfg.PerCity
}

// PopulationGrowth returns the population added this tick. Growth is
// logistic: fast while far below the cap, zero at the cap.
func PopulationGrowth(cfg config.PopulationConfig, population, maxPop int) int {
	if maxPop <= 0 || population >= maxPop {
		return 0
	}
	growth := cfg.BaseGrowth + common.MulDiv(population/cfg.GrowthDivisor, maxPop-population, maxPop)
	return common.Clamp(growth, 0, maxPop-population)
}

// SplitPopulation divides a population into troops and workers by the target
// troop ratio (percent). The ratio is clamped to 0..100.
func SplitPopulation(population, troopRatio int) (troops, workers int) {
	troops = common.Percent(population, ClampTroopRatio(troopRatio))
	return troops, population - troops
}

// ClampTroopRatio limits a troop ratio to a valid percentage.
func ClampTroopRatio(ratio int) int {
	return common.Clamp(ratio, 0, 100)
}

// GoldIncome returns the gold a player earns in one tick.
func GoldIncome(cfg config.PopulationConfig, workers, factories int) int {
	return common.MulDiv(workers, cfg.GoldPerWorkerPermil, 1000) + factories*cfg.FactoryGold
}
