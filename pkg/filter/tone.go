package filter

import (
	"image"
	"math"
	"strings"

	"github.com/matzehuels/llumina/pkg/errors"
)

// Tone selects a color grading variant.
type Tone string

// Supported tones.
const (
	ToneNone Tone = "none"
	ToneWarm Tone = "warm" // red boosted, blue dampened
	ToneCool Tone = "cool" // blue boosted, green dampened
	ToneMono Tone = "mono" // channel average
)

// Tones lists every tone in display order.
var Tones = []Tone{ToneNone, ToneWarm, ToneCool, ToneMono}

// ParseTone parses a tone name case-insensitively. The empty string is
// ToneNone.
func ParseTone(s string) (Tone, error) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return ToneNone, nil
	case ToneNone, ToneWarm, ToneCool, ToneMono:
		return t, nil
	}
	return "", errors.New(errors.ErrCodeInvalidTone, "unknown tone %q (must be none, warm, cool or mono)", s)
}

// multipliers returns the per-channel scale factors for the scaling tones.
func (t Tone) multipliers() (r, g, b float64, ok bool) {
	switch t {
	case ToneWarm:
		return 1.2, 1.0, 0.8, true
	case ToneCool:
		return 1.1, 0.9, 1.3, true
	}
	return 0, 0, 0, false
}

// ToneFilter adapts a Tone to the Filter interface.
type ToneFilter struct{ Tone Tone }

// Apply implements Filter.
func (f ToneFilter) Apply(img *image.RGBA) { ApplyTone(img, f.Tone) }

// ApplyTone grades img in place. Alpha is untouched and every channel is
// rounded to nearest (ties to even) and clamped to [0, 255].
func ApplyTone(img *image.RGBA, t Tone) {
	if img == nil {
		return
	}
	if t == ToneMono {
		applyMono(img)
		return
	}
	mr, mg, mb, ok := t.multipliers()
	if !ok {
		return
	}
	lr, lg, lb := scaleTable(mr), scaleTable(mg), scaleTable(mb)
	eachRow(img, func(row []uint8) {
		for i := 0; i+3 < len(row); i += 4 {
			row[i] = lr[row[i]]
			row[i+1] = lg[row[i+1]]
			row[i+2] = lb[row[i+2]]
		}
	})
}

func applyMono(img *image.RGBA) {
	var avg [766]uint8
	for s := range avg {
		avg[s] = clamp8(float64(s) / 3)
	}
	eachRow(img, func(row []uint8) {
		for i := 0; i+3 < len(row); i += 4 {
			v := avg[int(row[i])+int(row[i+1])+int(row[i+2])]
			row[i], row[i+1], row[i+2] = v, v, v
		}
	})
}

func scaleTable(m float64) *[256]uint8 {
	var t [256]uint8
	for v := range t {
		t[v] = clamp8(float64(v) * m)
	}
	return &t
}

func clamp8(v float64) uint8 {
	v = math.RoundToEven(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// eachRow calls fn with the pixel bytes of every row inside img.Rect.
func eachRow(img *image.RGBA, fn func(row []uint8)) {
	r := img.Rect
	if r.Empty() {
		return
	}
	w := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		fn(img.Pix[off : off+w])
	}
}
