// Package prng provides the small, deterministic random number generator that
// drives the reveal permutation.
//
// # Overview
//
// The generator is Mulberry32: a 32-bit state advanced by a Weyl increment and
// scrambled with two multiply-xorshift rounds. Every draw is O(1), allocation
// free, and depends only on the state, so the same seed yields the same
// sequence on every platform:
//
//	r := prng.New(prng.SeedFromString("my-seed"))
//	x := r.Float64() // in [0, 1)
//
// All arithmetic is uint32 with wraparound; the float result is the 32-bit
// output divided by 2^32, which is exact in IEEE-754 double precision.
//
// # Seeds
//
// [SeedFromString] sums the UTF-16 code units of a string (the first unit of
// each code point), so "TEST" maps to 320 and the empty string maps to 0.
//
// # Cosmetic Randomness
//
// Decorative effects use [NewTimeSeeded], a separate instance seeded from the
// wall clock. It must never be shared with the permutation generator.
package prng
