package rules

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

type testPlayer struct {
	id    core.SmallID
	tiles int
}

func (p testPlayer) SmallID() core.SmallID { return p.id }
func (p testPlayer) NumTilesOwned() int    { return p.tiles }
func (p testPlayer) IsAlive() bool         { return p.tiles > 0 }

func TestCheckWinner(t *testing.T) {
	tests := []struct {
		name    string
		players []Player
		land    int
		want    core.SmallID
		won     bool
	}{
		{"no players", nil, 100, 0, false},
		{"below threshold", []Player{testPlayer{1, 50}, testPlayer{2, 30}}, 100, 0, false},
		{"exactly threshold is not enough", []Player{testPlayer{1, 80}, testPlayer{2, 10}}, 100, 0, false},
		{"above threshold", []Player{testPlayer{1, 10}, testPlayer{2, 81}}, 100, 2, true},
		{"last standing", []Player{testPlayer{1, 0}, testPlayer{2, 5}}, 100, 2, true},
		{"single player game below threshold", []Player{testPlayer{1, 5}}, 100, 0, false},
		{"ties go to the earlier player", []Player{testPlayer{3, 90}, testPlayer{4, 90}}, 100, 3, true},
	}

	checker := NewWinConditionChecker(zerolog.Nop(), 80)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, won := checker.CheckWinner(tt.players, tt.land)
			assert.Equal(t, tt.won, won)
			if tt.won {
				require.NotNil(t, winner)
				assert.Equal(t, tt.want, winner.SmallID())
			}
		})
	}
}

func TestExceedsShare(t *testing.T) {
	assert.True(t, ExceedsShare(81, 100, 80))
	assert.False(t, ExceedsShare(80, 100, 80))
	assert.False(t, ExceedsShare(5, 0, 80))
}

func TestAttackTileCost(t *testing.T) {
	cfg := config.DefaultGameConfig().Attack

	t.Run("terra nullius", func(t *testing.T) {
		cost := AttackTileCost(cfg, core.TerrainPlains, false, false, nil)
		assert.Equal(t, TileCost{AttackerLoss: cfg.TerraNulliusCost}, cost)

		mountain := AttackTileCost(cfg, core.TerrainMountain, false, false, nil)
		assert.Equal(t, cfg.TerraNulliusCost*cfg.MountainPercent/100, mountain.AttackerLoss)
	})

	t.Run("defended tile", func(t *testing.T) {
		d := &Defender{Troops: 1000, Tiles: 10}
		cost := AttackTileCost(cfg, core.TerrainPlains, false, false, d)
		assert.Equal(t, 100, cost.AttackerLoss)
		assert.Equal(t, 100, cost.DefenderLoss)

		bonus := AttackTileCost(cfg, core.TerrainPlains, true, false, d)
		assert.Equal(t, 100*cfg.DefenseBonusPercent/100, bonus.AttackerLoss)

		traitor := AttackTileCost(cfg, core.TerrainPlains, false, false, &Defender{Troops: 1000, Tiles: 10, Traitor: true})
		assert.Less(t, traitor.AttackerLoss, cost.AttackerLoss)
	})

	t.Run("empty defender still costs something", func(t *testing.T) {
		cost := AttackTileCost(cfg, core.TerrainPlains, false, false, &Defender{Troops: 0, Tiles: 3})
		assert.Equal(t, 1, cost.AttackerLoss)
		assert.Equal(t, 0, cost.DefenderLoss)
	})
}

func TestTilesPerTick(t *testing.T) {
	cfg := config.AttackConfig{MinTilesPerTick: 2, TroopsPerExtraTile: 50, MaxTilesPerTick: 10}

	assert.Equal(t, 0, TilesPerTick(cfg, 0))
	assert.Equal(t, 2, TilesPerTick(cfg, 49))
	assert.Equal(t, 4, TilesPerTick(cfg, 100))
	assert.Equal(t, 10, TilesPerTick(cfg, 100000))
}

func TestNukeRadii(t *testing.T) {
	cfg := config.DefaultGameConfig().Nukes
	inner, outer := NukeRadii(cfg, core.UnitAtomBomb)
	assert.Equal(t, cfg.AtomInnerRadius, inner)
	assert.Equal(t, cfg.AtomOuterRadius, outer)

	inner, outer = NukeRadii(cfg, core.UnitHydrogenBomb)
	assert.Equal(t, cfg.HydroInnerRadius, inner)
	assert.Equal(t, cfg.HydroOuterRadius, outer)

	inner, outer = NukeRadii(cfg, core.UnitCity)
	assert.Zero(t, inner)
	assert.Zero(t, outer)
}

func TestPopulation(t *testing.T) {
	cfg := config.PopulationConfig{BaseMax: 1000, PerTile: 10, PerCity: 500, BaseGrowth: 10, GrowthDivisor: 10}

	assert.Equal(t, 1000+50*10+2*500, MaxPopulation(cfg, 50, 2))

	assert.Equal(t, 0, PopulationGrowth(cfg, 1000, 1000), "no growth at cap")
	assert.Equal(t, 5, PopulationGrowth(cfg, 995, 1000), "growth never overshoots the cap")
	assert.Equal(t, 10+50*500/1000, PopulationGrowth(cfg, 500, 1000))

	troops, workers := SplitPopulation(1000, 60)
	assert.Equal(t, 600, troops)
	assert.Equal(t, 400, workers)

	troops, workers = SplitPopulation(1000, 150)
	assert.Equal(t, 1000, troops, "ratio is clamped")
	assert.Equal(t, 0, workers)

	assert.Equal(t, 0, ClampTroopRatio(-5))
}

func TestGoldIncome(t *testing.T) {
	cfg := config.PopulationConfig{GoldPerWorkerPermil: 10, FactoryGold: 50}
	assert.Equal(t, 10, GoldIncome(cfg, 1000, 0))
	assert.Equal(t, 110, GoldIncome(cfg, 1000, 2))
}
