package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaterPath(t *testing.T) {
	// P = plains, O = ocean
	// O O O O
	// P P P O
	// O O O O
	terrain := []TerrainType{
		TerrainOcean, TerrainOcean, TerrainOcean, TerrainOcean,
		TerrainPlains, TerrainPlains, TerrainPlains, TerrainOcean,
		TerrainOcean, TerrainOcean, TerrainOcean, TerrainOcean,
	}
	m, err := NewGameMap(4, 3, terrain)
	require.NoError(t, err)

	path, ok := WaterPath(m, m.Ref(0, 0), m.Ref(0, 2), 0)
	require.True(t, ok)
	assert.Equal(t, m.Ref(0, 0), path[0])
	assert.Equal(t, m.Ref(0, 2), path[len(path)-1])
	assert.Len(t, path, 9, "path must go around the land bridge")
	for i := 1; i < len(path); i++ {
		assert.Equal(t, 1, m.ManhattanDist(path[i-1], path[i]))
		assert.True(t, m.IsWater(path[i]))
	}

	_, ok = WaterPath(m, m.Ref(0, 1), m.Ref(0, 2), 0)
	assert.False(t, ok, "land start is rejected")

	_, ok = WaterPath(m, m.Ref(0, 0), m.Ref(0, 2), 3)
	assert.False(t, ok, "search budget is honoured")
}

func TestWaterPath_Deterministic(t *testing.T) {
	terrain := make([]TerrainType, 36)
	for i := range terrain {
		terrain[i] = TerrainOcean
	}
	m, err := NewGameMap(6, 6, terrain)
	require.NoError(t, err)

	a, _ := WaterPath(m, m.Ref(0, 0), m.Ref(5, 5), 0)
	b, _ := WaterPath(m, m.Ref(0, 0), m.Ref(5, 5), 0)
	assert.Equal(t, a, b)
	assert.Len(t, a, 11)
}

func TestLinePath(t *testing.T) {
	m := plainsMap(t, 10, 10)

	path := LinePath(m, m.Ref(0, 0), m.Ref(4, 2))
	assert.Equal(t, m.Ref(0, 0), path[0])
	assert.Equal(t, m.Ref(4, 2), path[len(path)-1])
	assert.Len(t, path, 5)

	single := LinePath(m, m.Ref(3, 3), m.Ref(3, 3))
	assert.Equal(t, []TileRef{m.Ref(3, 3)}, single)
}

func TestClosestTile(t *testing.T) {
	m := plainsMap(t, 10, 10)
	target := m.Ref(5, 5)

	got := ClosestTile(m, target, []TileRef{m.Ref(0, 0), m.Ref(5, 7), m.Ref(7, 5)})
	assert.Equal(t, m.Ref(5, 7), got, "ties keep the earliest candidate")
	assert.Equal(t, InvalidTile, ClosestTile(m, target, nil))
}
