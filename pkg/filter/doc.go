// Package filter provides the optional pixel transforms applied to the base
// image before the reveal mask is composited over it.
//
// Filters mutate an *image.RGBA in place and hold no state between calls:
//
//   - [ApplyTone] scales the R, G and B channels by fixed per-tone
//     multipliers ([ToneWarm], [ToneCool]) or averages them ([ToneMono]).
//   - [ApplyGlitch] shifts a few random horizontal slices circularly and
//     sometimes offsets the red channel (chromatic aberration).
//
// Glitch randomness is cosmetic. It comes from its own generator, seeded from
// the clock by default, and never touches the reveal permutation.
package filter

import "image"

// Filter is a single in-place transform.
type Filter interface {
	Apply(img *image.RGBA)
}

// Chain applies filters in order.
type Chain []Filter

// Apply runs every filter in the chain.
func (c Chain) Apply(img *image.RGBA) {
	for _, f := range c {
		f.Apply(img)
	}
}
