package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbs(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive number", 5, 5},
		{"negative number", -5, 5},
		{"zero", 0, 0},
		{"min int special case", math.MinInt32 + 1, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Abs(tt.input))
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi int
		expected  int
	}{
		{"inside", 5, 0, 10, 5},
		{"below", -3, 0, 10, 0},
		{"above", 130, 0, 100, 100},
		{"at bound", 100, 0, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clamp(tt.v, tt.lo, tt.hi))
		})
	}
}

func TestPercentAndMulDiv(t *testing.T) {
	assert.Equal(t, 30, Percent(100, 30))
	assert.Equal(t, 3, Percent(11, 30))
	assert.Equal(t, 0, MulDiv(5, 5, 0))
	assert.Equal(t, 1_500_000_000, MulDiv(2_000_000_000, 3, 4), "no intermediate overflow")
}

func TestISqrt(t *testing.T) {
	tests := []struct {
		n, expected int
	}{
		{-4, 0}, {0, 0}, {1, 1}, {3, 1}, {4, 2}, {15, 3}, {16, 4}, {1_000_000, 1000}, {999_999, 999},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ISqrt(tt.n), "ISqrt(%d)", tt.n)
	}
}

func TestWithinRadius(t *testing.T) {
	assert.True(t, WithinRadius(3, 4, 5))
	assert.False(t, WithinRadius(4, 4, 5))
	assert.True(t, WithinRadius(0, 0, 0))
}
