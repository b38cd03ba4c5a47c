package game

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// StableHash maps a string to a value that is identical on every platform
// and every run.
func StableHash(s string) uint64 {
	sum := blake3.Sum256([]byte(s))
	return binary.LittleEndian.Uint64(sum[:8])
}

// Hash is the per-tick consistency value compared across clients:
// the sum over all players of StableHash(id) * (troops + tiles owned),
// wrapping on overflow.
func (e *Engine) Hash() uint64 {
	var h uint64
	for _, p := range e.players {
		h += p.idHash * uint64(p.troops+p.tiles.Len())
	}
	return h
}
