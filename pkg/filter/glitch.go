package filter

import (
	"image"

	"github.com/matzehuels/llumina/pkg/prng"
)

const (
	maxSlices      = 5  // slice count at intensity 1
	maxSliceHeight = 20 // rows per slice, exclusive upper bound before +1
	maxShift       = 40 // total shift span in pixels at intensity 1
	maxRedOffset   = 5  // chromatic aberration offset, exclusive bound before +1
)

// GlitchFilter adapts ApplyGlitchWith to the Filter interface. A nil Rand
// uses a fresh clock-seeded generator on every Apply.
type GlitchFilter struct {
	Intensity float64
	Rand      prng.Source
}

// Apply implements Filter.
func (f GlitchFilter) Apply(img *image.RGBA) {
	r := f.Rand
	if r == nil {
		r = prng.NewTimeSeeded()
	}
	ApplyGlitchWith(img, f.Intensity, r)
}

// ApplyGlitch applies a glitch with clock-seeded randomness.
func ApplyGlitch(img *image.RGBA, intensity float64) {
	if intensity <= 0 {
		return
	}
	ApplyGlitchWith(img, intensity, prng.NewTimeSeeded())
}

// ApplyGlitchWith shifts floor(r*5*intensity) horizontal slices by a random
// signed offset, wrapping around each row, then with probability intensity
// shifts the red channel left by 1-5 pixels. Intensity is clamped to [0, 1];
// zero is a no-op.
func ApplyGlitchWith(img *image.RGBA, intensity float64, r prng.Source) {
	if img == nil || img.Rect.Empty() || intensity <= 0 {
		return
	}
	intensity = min(intensity, 1)
	w, h := img.Rect.Dx(), img.Rect.Dy()

	slices := int(r.Float64() * maxSlices * intensity)
	rowCopy := make([]uint8, w*4)
	for i := 0; i < slices; i++ {
		y0 := int(r.Float64() * float64(h))
		height := int(r.Float64()*maxSliceHeight) + 1
		shift := floorInt((r.Float64() - 0.5) * maxShift * intensity)
		for y := y0; y < min(y0+height, h); y++ {
			shiftRow(img, y, shift, rowCopy)
		}
	}

	if r.Float64() < intensity {
		offset := int(r.Float64()*maxRedOffset) + 1
		shiftRed(img, offset)
	}
}

// shiftRow circularly moves row y (relative to img.Rect) right by shift
// pixels, reading from a copy so the source is never overwritten mid-shift.
func shiftRow(img *image.RGBA, y, shift int, rowCopy []uint8) {
	w := img.Rect.Dx()
	shift = ((shift % w) + w) % w
	if shift == 0 {
		return
	}
	off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
	row := img.Pix[off : off+w*4]
	copy(rowCopy, row)
	for x := 0; x < w; x++ {
		dst := ((x + shift) % w) * 4
		copy(row[dst:dst+4], rowCopy[x*4:x*4+4])
	}
}

// shiftRed pulls each pixel's red value from the pixel offset positions
// later. A contiguous image is treated as one flat run so the shift crosses
// row boundaries; otherwise each row is shifted on its own.
func shiftRed(img *image.RGBA, offset int) {
	w := img.Rect.Dx()
	if img.Stride == w*4 {
		start := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)
		redRun(img.Pix[start:start+w*img.Rect.Dy()*4], offset)
		return
	}
	eachRow(img, func(row []uint8) { redRun(row, offset) })
}

func redRun(pix []uint8, offset int) {
	step := offset * 4
	for i := 0; i+step < len(pix); i += 4 {
		pix[i] = pix[i+step]
	}
}

func floorInt(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}
