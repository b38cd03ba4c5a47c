package core

// WaterPath finds a shortest 4-connected path over water from src to dst.
// Both ends must be water. The returned path starts with src and ends with dst.
// maxVisited bounds the search; zero means unbounded.
func WaterPath(m *GameMap, src, dst TileRef, maxVisited int) ([]TileRef, bool) {
	if !m.IsWater(src) || !m.IsWater(dst) {
		return nil, false
	}
	if src == dst {
		return []TileRef{src}, true
	}
	parent := make(map[TileRef]TileRef)
	parent[src] = src
	queue := []TileRef{src}
	for i := 0; i < len(queue); i++ {
		if maxVisited > 0 && i >= maxVisited {
			return nil, false
		}
		cur := queue[i]
		found := false
		m.ForEachNeighbor(cur, func(n TileRef) {
			if found {
				return
			}
			if _, ok := parent[n]; ok || !m.terrain[n].IsWater() {
				return
			}
			parent[n] = cur
			if n == dst {
				found = true
				return
			}
			queue = append(queue, n)
		})
		if found {
			return unwindPath(parent, src, dst), true
		}
	}
	return nil, false
}

func unwindPath(parent map[TileRef]TileRef, src, dst TileRef) []TileRef {
	var rev []TileRef
	for cur := dst; cur != src; cur = parent[cur] {
		rev = append(rev, cur)
	}
	rev = append(rev, src)
	path := make([]TileRef, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}

// LinePath returns the Bresenham line from src to dst inclusive.
func LinePath(m *GameMap, src, dst TileRef) []TileRef {
	a, b := m.Cell(src), m.Cell(dst)
	dx := b.X - a.X
	if dx < 0 {
		dx = -dx
	}
	dy := b.Y - a.Y
	if dy < 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx - dy
	x, y := a.X, a.Y
	path := []TileRef{src}
	for x != b.X || y != b.Y {
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
		path = append(path, m.Ref(x, y))
	}
	return path
}

// ClosestTile returns the candidate with the smallest Manhattan distance to
// target; ties keep the earliest candidate.
func ClosestTile(m *GameMap, target TileRef, candidates []TileRef) TileRef {
	best := InvalidTile
	bestDist := 0
	for _, c := range candidates {
		d := m.ManhattanDist(target, c)
		if best == InvalidTile || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
