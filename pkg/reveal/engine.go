package reveal

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/matzehuels/llumina/pkg/errors"
)

const (
	opaque      = 0xff
	transparent = 0x00
)

// Engine owns one reveal permutation and one mask buffer for a fixed canvas
// size and seed. Changing either requires a new Engine.
//
// Invariant: the transparent pixels of the mask are exactly the first
// Revealed() entries of the permutation.
type Engine struct {
	width  int
	height int
	seed   string

	perm     Permutation
	mask     *image.NRGBA
	color    color.RGBA
	revealed int
}

// New allocates an engine for a width x height canvas. The permutation is
// not built until Initialize is called.
func New(width, height int, seed string) (*Engine, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	return &Engine{width: width, height: height, seed: seed}, nil
}

// Initialize builds the permutation and clears any mask state. It must
// complete before GenerateMask is called.
func (e *Engine) Initialize(ctx context.Context) error {
	perm, err := BuildPermutation(ctx, e.width, e.height, e.seed)
	if err != nil {
		return err
	}
	e.perm = perm
	e.ResetMask()
	return nil
}

// Initialized reports whether the permutation has been built.
func (e *Engine) Initialized() bool { return e.perm != nil }

// ResetMask discards the mask buffer so nothing is revealed. The next
// GenerateMask call allocates a fresh, fully opaque buffer.
func (e *Engine) ResetMask() {
	e.mask = nil
	e.revealed = 0
}

// Release drops both buffers. The engine must be re-initialized before use.
func (e *Engine) Release() {
	e.perm = nil
	e.ResetMask()
}

// GenerateMask moves the mask to targetCount revealed pixels and returns it.
// maskColor is a "#RRGGBB" string; a malformed color is returned as an
// INVALID_COLOR error and leaves the mask untouched.
//
// The returned image is the engine's live buffer, see [Engine.Snapshot].
func (e *Engine) GenerateMask(targetCount int, maskColor string) (*image.NRGBA, error) {
	c, err := ParseHexColor(maskColor)
	if err != nil {
		return nil, err
	}
	return e.GenerateMaskColor(targetCount, c)
}

// GenerateMaskColor is GenerateMask with a pre-parsed color. Alpha of c is
// ignored. targetCount is clamped into [0, Total()].
func (e *Engine) GenerateMaskColor(targetCount int, c color.RGBA) (*image.NRGBA, error) {
	if e.perm == nil {
		return nil, errors.New(errors.ErrCodeUninitializedEngine, "reveal engine used before Initialize")
	}
	target := min(max(targetCount, 0), len(e.perm))
	c.A = opaque

	if e.mask == nil {
		e.mask = newMask(e.width, e.height, c)
		e.color = c
		e.revealed = 0
	} else if c != e.color {
		recolor(e.mask.Pix, c)
		e.color = c
	}

	pix := e.mask.Pix
	switch {
	case target < e.revealed:
		for _, p := range e.perm[target:e.revealed] {
			pix[int(p)*4+3] = opaque
		}
	case target > e.revealed:
		for _, p := range e.perm[e.revealed:target] {
			pix[int(p)*4+3] = transparent
		}
	}
	e.revealed = target
	return e.mask, nil
}

// Snapshot returns a copy of the current mask, or nil if no mask exists.
func (e *Engine) Snapshot() *image.NRGBA {
	if e.mask == nil {
		return nil
	}
	out := image.NewNRGBA(e.mask.Rect)
	copy(out.Pix, e.mask.Pix)
	return out
}

// Revealed returns the number of currently transparent pixels.
func (e *Engine) Revealed() int { return e.revealed }

// Total returns width*height.
func (e *Engine) Total() int { return e.width * e.height }

// Width returns the canvas width.
func (e *Engine) Width() int { return e.width }

// Height returns the canvas height.
func (e *Engine) Height() int { return e.height }

// Seed returns the seed the permutation is derived from.
func (e *Engine) Seed() string { return e.seed }

// Permutation returns the reveal order, or nil before Initialize.
// The slice is shared with the engine and must not be modified.
func (e *Engine) Permutation() Permutation { return e.perm }

// PixelsToReveal converts a counter value into a pixel count:
// floor(counter * perUnit), saturating at the int range. Negative and NaN
// results map to 0; the engine clamps the upper end.
func PixelsToReveal(counter, perUnit float64) int {
	v := math.Floor(counter * perUnit)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(v)
}

// Percent returns revealed/total*100 clamped to [0, 100].
func Percent(revealed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return min(max(float64(revealed)/float64(total)*100, 0), 100)
}

func newMask(width, height int, c color.RGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	fill := [4]uint8{c.R, c.G, c.B, opaque}
	pix := m.Pix
	if len(pix) == 0 {
		return m
	}
	copy(pix, fill[:])
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
	return m
}

func recolor(pix []uint8, c color.RGBA) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
	}
}
