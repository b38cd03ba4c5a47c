package protocol

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// PackedTile is the decoded form of one packed tile update.
type PackedTile struct {
	X     int
	Y     int
	Owner core.SmallID
	Flags uint8
}

// HasFallout, HasDefenseBonus and IsBorder decode the flags byte.
func (p PackedTile) HasFallout() bool      { return p.Flags&core.FlagFallout != 0 }
func (p PackedTile) HasDefenseBonus() bool { return p.Flags&core.FlagDefenseBonus != 0 }
func (p PackedTile) IsBorder() bool        { return p.Flags&core.FlagBorder != 0 }

// PackTile encodes a tile as x(16) | y(16) | owner(16) | flags(8), high to low.
func PackTile(x, y int, owner core.SmallID, flags uint8) uint64 {
	return uint64(uint16(x))<<40 | uint64(uint16(y))<<24 | uint64(owner)<<8 | uint64(flags)
}

// UnpackTile reverses PackTile.
func UnpackTile(v uint64) PackedTile {
	return PackedTile{
		X:     int(uint16(v >> 40)),
		Y:     int(uint16(v >> 24)),
		Owner: core.SmallID(uint16(v >> 8)),
		Flags: uint8(v),
	}
}

// PackMapTile packs the current state of ref on m.
func PackMapTile(m *core.GameMap, ref core.TileRef) uint64 {
	return PackTile(m.X(ref), m.Y(ref), m.OwnerID(ref), m.Flags(ref))
}
