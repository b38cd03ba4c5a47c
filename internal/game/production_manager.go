package game

import (
	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/rules"
)

// ProductionManager applies per-tick population growth and gold income
type ProductionManager struct {
	cfg    *config.PopulationConfig
	logger zerolog.Logger
}

// NewProductionManager creates a new production manager
func NewProductionManager(cfg *config.PopulationConfig, logger zerolog.Logger) *ProductionManager {
	return &ProductionManager{
		cfg:    cfg,
		logger: logger.With().Str("component", "ProductionManager").Logger(),
	}
}

// Production is what one player gained in one tick.
type Production struct {
	Troops  int
	Workers int
	Gold    int
}

// ApplyProduction grows p's population toward its cap, drifts the
// troop/worker split toward the target ratio and pays gold income.
func (e *Engine) ApplyProduction(p *Player) Production {
	return e.production.apply(e, p)
}

func (pm *ProductionManager) apply(e *Engine, p *Player) Production {
	cities := len(e.PlayerUnits(p, core.UnitCity))
	factories := len(e.PlayerUnits(p, core.UnitFactory))
	maxPop := rules.MaxPopulation(*pm.cfg, p.tiles.Len(), cities)

	growth := rules.PopulationGrowth(*pm.cfg, p.Population(), maxPop)
	troops, workers := rules.SplitPopulation(growth, p.targetTroopRatio)

	// Shift at most 1% of the population per tick toward the target split.
	want, _ := rules.SplitPopulation(p.Population()+growth, p.targetTroopRatio)
	have := p.troops + troops
	step := (p.Population()+growth)/100 + 1
	switch {
	case have < want:
		shift := min(want-have, step, p.workers+workers)
		troops += shift
		workers -= shift
	case have > want:
		shift := min(have-want, step)
		troops -= shift
		workers += shift
	}

	gold := rules.GoldIncome(*pm.cfg, p.workers+workers, factories)

	if troops != 0 || workers != 0 || gold != 0 {
		p.troops = max(p.troops+troops, 0)
		p.workers = max(p.workers+workers, 0)
		p.gold += gold
		e.markPlayer(p)
	}

	pm.logger.Debug().
		Str("player_id", string(p.id)).
		Int("growth", growth).
		Int("max_population", maxPop).
		Int("gold", gold).
		Msg("Production applied")

	return Production{Troops: troops, Workers: workers, Gold: gold}
}
