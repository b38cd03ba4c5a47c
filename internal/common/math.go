// Package common holds the integer arithmetic the simulation relies on.
// Nothing here may use floating point: results must be bit-identical on
// every client.
package common

// Abs returns the absolute value of an integer
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Percent returns pct percent of v, rounded toward zero.
func Percent(v, pct int) int {
	return int(int64(v) * int64(pct) / 100)
}

// MulDiv computes a*b/c in 64-bit to avoid intermediate overflow. c == 0 yields 0.
func MulDiv(a, b, c int) int {
	if c == 0 {
		return 0
	}
	return int(int64(a) * int64(b) / int64(c))
}

// ISqrt returns floor(sqrt(n)) for n >= 0 and 0 otherwise.
func ISqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// WithinRadius reports whether (dx, dy) lies inside a circle of radius r.
func WithinRadius(dx, dy, r int) bool {
	return dx*dx+dy*dy <= r*r
}
