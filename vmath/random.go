package vmath

// Seed is an immutable xorshift64 state
// Every draw returns the value and the next seed; nothing is mutated in place
type Seed uint64

// NewSeed maps zero to a non-zero state (xorshift has a zero fixed point)
func NewSeed(s uint64) Seed {
	if s == 0 {
		s = 0x9E3779B97F4A7C15
	}
	return Seed(s)
}

// Next returns a raw 64-bit value and the following seed
func (s Seed) Next() (uint64, Seed) {
	x := uint64(s)
	if x == 0 {
		x = uint64(NewSeed(0))
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	return x, Seed(x)
}

// Intn returns a value in [0, n) and the next seed; n <= 0 yields 0
func (s Seed) Intn(n int) (int, Seed) {
	v, next := s.Next()
	if n <= 0 {
		return 0, next
	}
	return int(v % uint64(n)), next
}

// Float64 returns a value in [0, 1) and the next seed
func (s Seed) Float64() (float64, Seed) {
	v, next := s.Next()
	return float64(v>>11) / (1 << 53), next
}

// Chance returns true with probability p
func (s Seed) Chance(p float64) (bool, Seed) {
	f, next := s.Float64()
	return f < p, next
}

// Choose picks one element uniformly; ok is false for an empty slice
func Choose[T any](s Seed, items []T) (T, Seed, bool) {
	var zero T
	if len(items) == 0 {
		return zero, s, false
	}
	i, next := s.Intn(len(items))
	return items[i], next, true
}
