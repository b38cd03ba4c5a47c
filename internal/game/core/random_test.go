package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPseudoRandom_SameSeedSameSequence(t *testing.T) {
	a := NewPseudoRandom(12345)
	b := NewPseudoRandom(12345)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.NextInt(0, 1000), b.NextInt(0, 1000))
	}
	assert.Equal(t, a.NextID(8), b.NextID(8))
}

func TestPseudoRandom_Bounds(t *testing.T) {
	r := NewPseudoRandom(1)

	for i := 0; i < 200; i++ {
		v := r.NextInt(10, 20)
		assert.GreaterOrEqual(t, v, 10)
		assert.Less(t, v, 20)
	}
	assert.Equal(t, 7, r.NextInt(7, 7), "empty range returns min")
	assert.True(t, r.Chance(1))
	assert.True(t, r.Percent(100))
	assert.False(t, r.Percent(0))
}

func TestPseudoRandom_NextID(t *testing.T) {
	id := NewPseudoRandom(99).NextID(8)
	assert.Len(t, id, 8)
	for _, c := range id {
		assert.Contains(t, idAlphabet, string(c))
	}
}

func TestTickSeed(t *testing.T) {
	assert.Equal(t, TickSeed(5, 10), TickSeed(5, 10))
	assert.NotEqual(t, TickSeed(5, 10), TickSeed(5, 11))
	assert.NotEqual(t, TickSeed(5, 10), TickSeed(6, 10))
}
