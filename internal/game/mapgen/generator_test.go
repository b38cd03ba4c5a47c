package mapgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

func testMapConfig() config.MapConfig {
	return config.MapConfig{
		Width:           60,
		Height:          40,
		Seed:            12345,
		OceanBorder:     4,
		Lakes:           2,
		LakeRadius:      4,
		HighlandPercent: 20,
		MountainPercent: 5,
	}
}

func countTerrain(m *core.GameMap) map[core.TerrainType]int {
	counts := make(map[core.TerrainType]int)
	for i := 0; i < m.Size(); i++ {
		counts[m.Terrain(core.TileRef(i))]++
	}
	return counts
}

func TestNewGenerator(t *testing.T) {
	cfg := testMapConfig()
	generator := NewGenerator(cfg)

	require.NotNil(t, generator)
	assert.Equal(t, cfg, generator.config)
	assert.NotNil(t, generator.rng)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := NewGenerator(testMapConfig()).Generate()
	require.NoError(t, err)
	b, err := NewGenerator(testMapConfig()).Generate()
	require.NoError(t, err)

	for i := 0; i < a.Size(); i++ {
		require.Equal(t, a.Terrain(core.TileRef(i)), b.Terrain(core.TileRef(i)), "tile %d differs", i)
	}

	other := testMapConfig()
	other.Seed = 99
	c, err := NewGenerator(other).Generate()
	require.NoError(t, err)
	differs := false
	for i := 0; i < a.Size(); i++ {
		if a.Terrain(core.TileRef(i)) != c.Terrain(core.TileRef(i)) {
			differs = true
			break
		}
	}
	assert.True(t, differs, "different seeds should give different maps")
}

func TestGenerate_OceanBorder(t *testing.T) {
	cfg := testMapConfig()
	m, err := NewGenerator(cfg).Generate()
	require.NoError(t, err)

	// the inner border-2 rings are always ocean
	for x := 0; x < cfg.Width; x++ {
		assert.True(t, m.IsOcean(m.Ref(x, 0)))
		assert.True(t, m.IsOcean(m.Ref(x, cfg.Height-1)))
	}
	assert.True(t, m.IsLand(m.Ref(cfg.Width/2, cfg.Height/2)) || m.IsLake(m.Ref(cfg.Width/2, cfg.Height/2)))
}

func TestGenerate_TerrainShares(t *testing.T) {
	cfg := testMapConfig()
	m, err := NewGenerator(cfg).Generate()
	require.NoError(t, err)

	counts := countTerrain(m)
	land := counts[core.TerrainPlains] + counts[core.TerrainHighland] + counts[core.TerrainMountain]
	assert.Equal(t, land, m.NumLandTiles())
	assert.Greater(t, counts[core.TerrainMountain], 0)
	assert.Greater(t, counts[core.TerrainHighland], 0)
	assert.LessOrEqual(t, counts[core.TerrainMountain], land*cfg.MountainPercent/100+1)
}

func TestGenerate_NoFeatures(t *testing.T) {
	cfg := config.MapConfig{Width: 10, Height: 10, Seed: 1}
	m, err := NewGenerator(cfg).Generate()
	require.NoError(t, err)
	assert.Equal(t, 100, m.NumLandTiles(), "no border, lakes or relief means all plains")
	assert.Equal(t, 100, countTerrain(m)[core.TerrainPlains])
}

func TestGenerate_InvalidSize(t *testing.T) {
	_, err := NewGenerator(config.MapConfig{Width: 0, Height: 10}).Generate()
	assert.ErrorIs(t, err, core.ErrInvalidMap)
}

func TestFindSpawnTiles(t *testing.T) {
	m, err := NewGenerator(testMapConfig()).Generate()
	require.NoError(t, err)

	tiles := FindSpawnTiles(m, core.NewPseudoRandom(12345), 5, 8, nil)
	require.Len(t, tiles, 5)
	for i, a := range tiles {
		assert.True(t, m.IsLand(a))
		for _, b := range tiles[i+1:] {
			assert.GreaterOrEqual(t, m.ManhattanDist(a, b), 8)
		}
	}

	again := FindSpawnTiles(m, core.NewPseudoRandom(12345), 5, 8, nil)
	assert.Equal(t, tiles, again)
}

func TestFindSpawnTiles_RespectsTakenAndOwned(t *testing.T) {
	terrain := make([]core.TerrainType, 9)
	m, err := core.NewGameMap(3, 3, terrain)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		m.SetOwnerID(core.TileRef(i), 1)
	}

	tiles := FindSpawnTiles(m, core.NewPseudoRandom(1), 3, 0, nil)
	assert.Equal(t, []core.TileRef{8}, tiles, "only the unowned tile is a candidate")

	none := FindSpawnTiles(m, core.NewPseudoRandom(1), 1, 2, []core.TileRef{7})
	assert.Empty(t, none)
}
