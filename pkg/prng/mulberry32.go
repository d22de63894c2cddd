package prng

import "time"

// weyl is the Mulberry32 state increment.
const weyl = 0x6D2B79F5

// twoTo32 converts a uint32 output into [0, 1).
const twoTo32 = 4294967296.0

// Source is a stream of uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// Mulberry32 is a seeded 32-bit generator. The zero value is a valid
// generator seeded with 0. It is not safe for concurrent use.
type Mulberry32 struct {
	state uint32
	seed  uint32
}

// New returns a generator whose first draw is determined by seed.
func New(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed, seed: seed}
}

// NewTimeSeeded returns a generator seeded from the current wall-clock
// milliseconds, truncated to 32 bits. Sequences are not reproducible.
func NewTimeSeeded() *Mulberry32 {
	return New(uint32(time.Now().UnixMilli()))
}

// Uint32 advances the state and returns the next 32-bit output.
func (r *Mulberry32) Uint32() uint32 {
	r.state += weyl
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns the next value in [0, 1).
func (r *Mulberry32) Float64() float64 {
	return float64(r.Uint32()) / twoTo32
}

// Intn returns floor(Float64() * n). It returns 0 when n <= 0.
func (r *Mulberry32) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Float64() * float64(n))
}

// Seed returns the seed the generator was created with.
func (r *Mulberry32) Seed() uint32 { return r.seed }

// Reset rewinds the generator to its initial seed.
func (r *Mulberry32) Reset() { r.state = r.seed }
