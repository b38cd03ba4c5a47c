package mapgen

import (
	"fmt"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// Generator builds terrain with a deterministic RNG. Every client that uses
// the same MapConfig gets the same map.
type Generator struct {
	config config.MapConfig
	rng    *core.PseudoRandom
}

// NewGenerator creates a new map generator seeded from cfg.Seed
func NewGenerator(cfg config.MapConfig) *Generator {
	return &Generator{
		config: cfg,
		rng:    core.NewPseudoRandom(cfg.Seed),
	}
}

// Generate creates the terrain and returns a map with no owners.
func (g *Generator) Generate() (*core.GameMap, error) {
	w, h := g.config.Width, g.config.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("generate %dx%d: %w", w, h, core.ErrInvalidMap)
	}
	terrain := make([]core.TerrainType, w*h)

	g.placeOcean(terrain)
	g.placeLakes(terrain)

	land := 0
	for _, t := range terrain {
		if !t.IsWater() {
			land++
		}
	}
	g.placeMountains(terrain, land*g.config.MountainPercent/100)
	g.placeHighlands(terrain, land*g.config.HighlandPercent/100)

	return core.NewGameMap(w, h, terrain)
}

// placeOcean floods a ragged border of the map with ocean.
func (g *Generator) placeOcean(terrain []core.TerrainType) {
	w, h := g.config.Width, g.config.Height
	border := g.config.OceanBorder
	if border <= 0 {
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := min(x, y, w-1-x, h-1-y)
			// ragged coastline: the last two rings are ocean only part of the time
			limit := border - 2 + g.rng.NextInt(0, 3)
			if d < limit {
				terrain[y*w+x] = core.TerrainOcean
			}
		}
	}
}

func (g *Generator) placeLakes(terrain []core.TerrainType) {
	w, h := g.config.Width, g.config.Height
	r := g.config.LakeRadius
	if r <= 0 {
		return
	}
	for i := 0; i < g.config.Lakes; i++ {
		cx, cy := g.rng.NextInt(0, w), g.rng.NextInt(0, h)
		radius := g.rng.NextInt(r/2, r+1)
		for y := cy - radius; y <= cy+radius; y++ {
			for x := cx - radius; x <= cx+radius; x++ {
				if x < 0 || y < 0 || x >= w || y >= h {
					continue
				}
				dx, dy := x-cx, y-cy
				if dx*dx+dy*dy > radius*radius {
					continue
				}
				if terrain[y*w+x] != core.TerrainOcean {
					terrain[y*w+x] = core.TerrainLake
				}
			}
		}
	}
}

// placeMountains lays down random-walk veins of mountain until want tiles
// are mountain or the attempt budget runs out.
func (g *Generator) placeMountains(terrain []core.TerrainType, want int) {
	w, h := g.config.Width, g.config.Height
	placed := 0
	maxAttempts := want*10 + 10
	for attempts := 0; placed < want && attempts < maxAttempts; attempts++ {
		x, y := g.rng.NextInt(0, w), g.rng.NextInt(0, h)
		length := g.rng.NextInt(3, 3+max(w/8, 1))
		for step := 0; step < length && placed < want; step++ {
			if x < 0 || y < 0 || x >= w || y >= h {
				break
			}
			idx := y*w + x
			if terrain[idx] == core.TerrainPlains {
				terrain[idx] = core.TerrainMountain
				placed++
			}
			switch g.rng.NextInt(0, 4) {
			case 0:
				x++
			case 1:
				x--
			case 2:
				y++
			default:
				y--
			}
		}
	}
}

// placeHighlands grows highland blobs around mountains and random seeds.
func (g *Generator) placeHighlands(terrain []core.TerrainType, want int) {
	w, h := g.config.Width, g.config.Height
	placed := 0
	maxAttempts := want*10 + 10
	for attempts := 0; placed < want && attempts < maxAttempts; attempts++ {
		cx, cy := g.rng.NextInt(0, w), g.rng.NextInt(0, h)
		radius := g.rng.NextInt(1, 4)
		for y := cy - radius; y <= cy+radius && placed < want; y++ {
			for x := cx - radius; x <= cx+radius && placed < want; x++ {
				if x < 0 || y < 0 || x >= w || y >= h {
					continue
				}
				idx := y*w + x
				if terrain[idx] == core.TerrainPlains {
					terrain[idx] = core.TerrainHighland
					placed++
				}
			}
		}
	}
}

// FindSpawnTiles picks up to n land tiles at least minSpacing apart
// (Manhattan) from each other and from taken. Tiles already owned are
// skipped. The result is deterministic for a given rng state.
func FindSpawnTiles(m *core.GameMap, rng *core.PseudoRandom, n, minSpacing int, taken []core.TileRef) []core.TileRef {
	var out []core.TileRef
	maxAttempts := m.Size()
	used := append([]core.TileRef(nil), taken...)

	for len(out) < n {
		tile, ok := findSpawnTile(m, rng, minSpacing, used, maxAttempts)
		if !ok {
			break
		}
		out = append(out, tile)
		used = append(used, tile)
	}
	return out
}

func findSpawnTile(m *core.GameMap, rng *core.PseudoRandom, minSpacing int, existing []core.TileRef, maxAttempts int) (core.TileRef, bool) {
	for attempts := 0; attempts < maxAttempts; attempts++ {
		ref := core.TileRef(rng.NextInt(0, m.Size()))
		if validSpawn(m, ref, minSpacing, existing) {
			return ref, true
		}
	}

	// Fallback: first valid tile in index order
	for i := 0; i < m.Size(); i++ {
		if validSpawn(m, core.TileRef(i), minSpacing, existing) {
			return core.TileRef(i), true
		}
	}
	return core.InvalidTile, false
}

func validSpawn(m *core.GameMap, ref core.TileRef, minSpacing int, existing []core.TileRef) bool {
	if !m.IsLand(ref) || m.HasOwner(ref) {
		return false
	}
	for _, other := range existing {
		if other == ref || m.ManhattanDist(ref, other) < minSpacing {
			return false
		}
	}
	return true
}
