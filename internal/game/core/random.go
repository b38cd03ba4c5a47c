package core

import (
	"math/rand"
	"strings"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// PseudoRandom is the only randomness source the simulation may use. Two
// instances with the same seed produce the same sequence on every client.
type PseudoRandom struct {
	rng *rand.Rand
}

// NewPseudoRandom creates a seeded generator.
func NewPseudoRandom(seed int64) *PseudoRandom {
	return &PseudoRandom{rng: rand.New(rand.NewSource(seed))}
}

// TickSeed derives a seed from a base seed and a tick so per-tick decisions do
// not depend on how many draws earlier ticks made.
func TickSeed(base int64, tick int) int64 {
	return base*1_000_003 + int64(tick)*7_919
}

// NextInt returns a value in [min, max). It returns min when the range is empty.
func (p *PseudoRandom) NextInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + p.rng.Intn(max-min)
}

// Chance returns true with probability 1/odds.
func (p *PseudoRandom) Chance(odds int) bool {
	if odds <= 1 {
		return true
	}
	return p.rng.Intn(odds) == 0
}

// Percent returns true with probability pct/100.
func (p *PseudoRandom) Percent(pct int) bool {
	if pct >= 100 {
		return true
	}
	if pct <= 0 {
		return false
	}
	return p.rng.Intn(100) < pct
}

// NextID returns a lowercase alphanumeric id of length n.
func (p *PseudoRandom) NextID(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(idAlphabet[p.rng.Intn(len(idAlphabet))])
	}
	return sb.String()
}

// Int63 exposes the raw generator for seeding derived generators.
func (p *PseudoRandom) Int63() int64 {
	return p.rng.Int63()
}

// PickTile returns a random element of tiles, or InvalidTile for an empty slice.
func (p *PseudoRandom) PickTile(tiles []TileRef) TileRef {
	if len(tiles) == 0 {
		return InvalidTile
	}
	return tiles[p.rng.Intn(len(tiles))]
}

// ShuffleTiles permutes tiles in place.
func (p *PseudoRandom) ShuffleTiles(tiles []TileRef) {
	p.rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
}
