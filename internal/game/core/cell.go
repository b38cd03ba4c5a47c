package core

import "fmt"

// Cell is an (x, y) map position as carried by intents.
type Cell struct {
	X int `msgpack:"x"`
	Y int `msgpack:"y"`
}

// NewCell creates a new cell.
func NewCell(x, y int) Cell {
	return Cell{X: x, Y: y}
}

// CellFromRef converts a row-major tile index into a cell.
func CellFromRef(ref TileRef, width int) Cell {
	return Cell{X: int(ref) % width, Y: int(ref) / width}
}

// IsValid checks if the cell is within the given bounds.
func (c Cell) IsValid(width, height int) bool {
	return c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height
}

// ToRef converts the cell to a row-major tile index without bounds checks.
func (c Cell) ToRef(width int) TileRef {
	return TileRef(c.Y*width + c.X)
}

// ManhattanDist returns the Manhattan distance to another cell.
func (c Cell) ManhattanDist(other Cell) int {
	dx := c.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := c.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// DistSquared returns the squared Euclidean distance to another cell.
func (c Cell) DistSquared(other Cell) int {
	dx := c.X - other.X
	dy := c.Y - other.Y
	return dx*dx + dy*dy
}

// Neighbors returns the four orthogonal neighbors in N, E, S, W order.
func (c Cell) Neighbors() []Cell {
	return []Cell{
		{X: c.X, Y: c.Y - 1},
		{X: c.X + 1, Y: c.Y},
		{X: c.X, Y: c.Y + 1},
		{X: c.X - 1, Y: c.Y},
	}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}
