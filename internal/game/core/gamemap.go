package core

// TerrainType is the immutable terrain of a tile.
type TerrainType uint8

const (
	TerrainPlains TerrainType = iota
	TerrainHighland
	TerrainMountain
	TerrainLake
	TerrainOcean
)

// IsWater reports whether the terrain is lake or ocean.
func (t TerrainType) IsWater() bool {
	return t == TerrainLake || t == TerrainOcean
}

const (
	ownerMask        uint16 = 0x0FFF
	borderBit        uint16 = 1 << 12
	falloutBit       uint16 = 1 << 13
	defenseBonusBit  uint16 = 1 << 14
	tileStateBitMask        = ownerMask | borderBit | falloutBit | defenseBonusBit
)

// Tile flag bits as carried in packed tile updates.
const (
	FlagFallout      uint8 = 1 << 0
	FlagDefenseBonus uint8 = 1 << 1
	FlagBorder       uint8 = 1 << 2
)

// GameMap holds terrain and mutable per-tile state in flat row-major arrays.
// Owners are stored as small ids, never as pointers.
type GameMap struct {
	width   int
	height  int
	terrain []TerrainType
	state   []uint16
	numLand int
}

// NewGameMap creates a map from a row-major terrain slice of length width*height.
func NewGameMap(width, height int, terrain []TerrainType) (*GameMap, error) {
	if width <= 0 || height <= 0 || len(terrain) != width*height {
		return nil, ErrInvalidMap
	}
	m := &GameMap{
		width:   width,
		height:  height,
		terrain: terrain,
		state:   make([]uint16, width*height),
	}
	for _, t := range terrain {
		if !t.IsWater() {
			m.numLand++
		}
	}
	return m, nil
}

// Clone copies the mutable tile state; terrain is shared because it never changes.
func (m *GameMap) Clone() *GameMap {
	state := make([]uint16, len(m.state))
	copy(state, m.state)
	return &GameMap{
		width:   m.width,
		height:  m.height,
		terrain: m.terrain,
		state:   state,
		numLand: m.numLand,
	}
}

func (m *GameMap) Width() int        { return m.width }
func (m *GameMap) Height() int       { return m.height }
func (m *GameMap) Size() int         { return len(m.terrain) }
func (m *GameMap) NumLandTiles() int { return m.numLand }

// IsValidCoord checks if coordinates are within map boundaries.
func (m *GameMap) IsValidCoord(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// IsValidRef checks if the reference addresses a tile of this map.
func (m *GameMap) IsValidRef(ref TileRef) bool {
	return ref >= 0 && int(ref) < len(m.terrain)
}

// Ref converts coordinates to a TileRef. Out-of-bounds coordinates are fatal.
func (m *GameMap) Ref(x, y int) TileRef {
	if !m.IsValidCoord(x, y) {
		Fatalf("map.ref", "(%d,%d) on %dx%d map: %w", x, y, m.width, m.height, ErrOutOfBounds)
	}
	return TileRef(y*m.width + x)
}

// RefOf converts a cell to a TileRef. Out-of-bounds cells are fatal.
func (m *GameMap) RefOf(c Cell) TileRef {
	return m.Ref(c.X, c.Y)
}

func (m *GameMap) check(ref TileRef) {
	if !m.IsValidRef(ref) {
		Fatalf("map.tile", "ref %d on map of %d tiles: %w", ref, len(m.terrain), ErrOutOfBounds)
	}
}

func (m *GameMap) X(ref TileRef) int {
	m.check(ref)
	return int(ref) % m.width
}

func (m *GameMap) Y(ref TileRef) int {
	m.check(ref)
	return int(ref) / m.width
}

// Cell returns the coordinates of a tile.
func (m *GameMap) Cell(ref TileRef) Cell {
	m.check(ref)
	return CellFromRef(ref, m.width)
}

func (m *GameMap) Terrain(ref TileRef) TerrainType {
	m.check(ref)
	return m.terrain[ref]
}

func (m *GameMap) IsLand(ref TileRef) bool  { return !m.Terrain(ref).IsWater() }
func (m *GameMap) IsWater(ref TileRef) bool { return m.Terrain(ref).IsWater() }
func (m *GameMap) IsOcean(ref TileRef) bool { return m.Terrain(ref) == TerrainOcean }
func (m *GameMap) IsLake(ref TileRef) bool  { return m.Terrain(ref) == TerrainLake }

// IsShore reports whether a land tile touches water.
func (m *GameMap) IsShore(ref TileRef) bool {
	if !m.IsLand(ref) {
		return false
	}
	shore := false
	m.ForEachNeighbor(ref, func(n TileRef) {
		if m.terrain[n].IsWater() {
			shore = true
		}
	})
	return shore
}

// IsShoreline reports whether a water tile touches land.
func (m *GameMap) IsShoreline(ref TileRef) bool {
	if !m.IsWater(ref) {
		return false
	}
	shoreline := false
	m.ForEachNeighbor(ref, func(n TileRef) {
		if !m.terrain[n].IsWater() {
			shoreline = true
		}
	})
	return shoreline
}

// OwnerID returns the small id of the tile owner, NoOwner if unowned.
func (m *GameMap) OwnerID(ref TileRef) SmallID {
	m.check(ref)
	return SmallID(m.state[ref] & ownerMask)
}

func (m *GameMap) HasOwner(ref TileRef) bool {
	return m.OwnerID(ref) != NoOwner
}

func (m *GameMap) SetOwnerID(ref TileRef, id SmallID) {
	m.check(ref)
	if id > MaxSmallID {
		Fatalf("map.set_owner", "small id %d exceeds %d: %w", id, MaxSmallID, ErrSmallIDExhausted)
	}
	m.state[ref] = (m.state[ref] &^ ownerMask) | uint16(id)
}

func (m *GameMap) IsBorder(ref TileRef) bool {
	m.check(ref)
	return m.state[ref]&borderBit != 0
}

func (m *GameMap) SetBorder(ref TileRef, v bool) { m.setBit(ref, borderBit, v) }

func (m *GameMap) HasFallout(ref TileRef) bool {
	m.check(ref)
	return m.state[ref]&falloutBit != 0
}

func (m *GameMap) SetFallout(ref TileRef, v bool) { m.setBit(ref, falloutBit, v) }

func (m *GameMap) HasDefenseBonus(ref TileRef) bool {
	m.check(ref)
	return m.state[ref]&defenseBonusBit != 0
}

func (m *GameMap) SetDefenseBonus(ref TileRef, v bool) { m.setBit(ref, defenseBonusBit, v) }

func (m *GameMap) setBit(ref TileRef, bit uint16, v bool) {
	m.check(ref)
	if v {
		m.state[ref] |= bit
	} else {
		m.state[ref] &^= bit
	}
}

// Flags returns the packed-update flag byte of a tile.
func (m *GameMap) Flags(ref TileRef) uint8 {
	m.check(ref)
	s := m.state[ref]
	var f uint8
	if s&falloutBit != 0 {
		f |= FlagFallout
	}
	if s&defenseBonusBit != 0 {
		f |= FlagDefenseBonus
	}
	if s&borderBit != 0 {
		f |= FlagBorder
	}
	return f
}

// ApplyTileState overwrites owner and flags of a tile, as received in an update.
func (m *GameMap) ApplyTileState(ref TileRef, owner SmallID, flags uint8) {
	m.check(ref)
	s := uint16(owner) & ownerMask
	if flags&FlagFallout != 0 {
		s |= falloutBit
	}
	if flags&FlagDefenseBonus != 0 {
		s |= defenseBonusBit
	}
	if flags&FlagBorder != 0 {
		s |= borderBit
	}
	m.state[ref] = s & tileStateBitMask
}

// IsDefaultState reports whether the tile carries no owner and no flags.
func (m *GameMap) IsDefaultState(ref TileRef) bool {
	m.check(ref)
	return m.state[ref] == 0
}

// ForEachNeighbor calls fn for each in-bounds orthogonal neighbor in N, E, S, W order.
func (m *GameMap) ForEachNeighbor(ref TileRef, fn func(TileRef)) {
	m.check(ref)
	x := int(ref) % m.width
	y := int(ref) / m.width
	if y > 0 {
		fn(ref - TileRef(m.width))
	}
	if x < m.width-1 {
		fn(ref + 1)
	}
	if y < m.height-1 {
		fn(ref + TileRef(m.width))
	}
	if x > 0 {
		fn(ref - 1)
	}
}

// Neighbors returns the in-bounds orthogonal neighbors in N, E, S, W order.
func (m *GameMap) Neighbors(ref TileRef) []TileRef {
	out := make([]TileRef, 0, 4)
	m.ForEachNeighbor(ref, func(n TileRef) { out = append(out, n) })
	return out
}

// ManhattanDist returns the Manhattan distance between two tiles.
func (m *GameMap) ManhattanDist(a, b TileRef) int {
	return m.Cell(a).ManhattanDist(m.Cell(b))
}

// DistSquared returns the squared Euclidean distance between two tiles.
func (m *GameMap) DistSquared(a, b TileRef) int {
	return m.Cell(a).DistSquared(m.Cell(b))
}

// TilesInRadius returns the tiles whose squared distance to center is at most
// radius*radius, in row-major order.
func (m *GameMap) TilesInRadius(center TileRef, radius int) []TileRef {
	c := m.Cell(center)
	r2 := radius * radius
	var out []TileRef
	for y := c.Y - radius; y <= c.Y+radius; y++ {
		if y < 0 || y >= m.height {
			continue
		}
		for x := c.X - radius; x <= c.X+radius; x++ {
			if x < 0 || x >= m.width {
				continue
			}
			dx, dy := x-c.X, y-c.Y
			if dx*dx+dy*dy <= r2 {
				out = append(out, TileRef(y*m.width+x))
			}
		}
	}
	return out
}

// BFS walks tiles reachable from start through tiles accepted by include,
// in breadth-first order with N, E, S, W neighbor expansion. start is always
// part of the result when include accepts it.
func (m *GameMap) BFS(start TileRef, include func(TileRef) bool) []TileRef {
	m.check(start)
	if !include(start) {
		return nil
	}
	seen := map[TileRef]struct{}{start: {}}
	queue := []TileRef{start}
	for i := 0; i < len(queue); i++ {
		m.ForEachNeighbor(queue[i], func(n TileRef) {
			if _, ok := seen[n]; ok {
				return
			}
			seen[n] = struct{}{}
			if include(n) {
				queue = append(queue, n)
			}
		})
	}
	return queue
}
