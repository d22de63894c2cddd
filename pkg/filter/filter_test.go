package filter

import (
	"image"
	"image/color"
	"testing"

	"github.com/matzehuels/llumina/pkg/errors"
)

// seq is a scripted random source.
type seq struct {
	vals []float64
	i    int
}

func (s *seq) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// ramp stores the flat pixel index in the red channel.
func ramp(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4] = uint8(i)
		img.Pix[i*4+1] = 100
		img.Pix[i*4+2] = 200
		img.Pix[i*4+3] = 255
	}
	return img
}

func reds(img *image.RGBA) []uint8 {
	out := make([]uint8, 0, len(img.Pix)/4)
	for i := 0; i < len(img.Pix); i += 4 {
		out = append(out, img.Pix[i])
	}
	return out
}

func TestParseTone(t *testing.T) {
	tests := []struct {
		in      string
		want    Tone
		wantErr bool
	}{
		{"", ToneNone, false},
		{"warm", ToneWarm, false},
		{"COOL", ToneCool, false},
		{" mono ", ToneMono, false},
		{"none", ToneNone, false},
		{"sepia", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTone(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseTone(%q) error = %v", tt.in, err)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidTone) {
			t.Errorf("code = %v", errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ParseTone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyTone(t *testing.T) {
	tests := []struct {
		name string
		tone Tone
		in   color.RGBA
		want color.RGBA
	}{
		{"warm", ToneWarm, color.RGBA{100, 100, 100, 7}, color.RGBA{120, 100, 80, 7}},
		{"warm clamps", ToneWarm, color.RGBA{250, 250, 250, 255}, color.RGBA{255, 250, 200, 255}},
		{"cool", ToneCool, color.RGBA{100, 100, 100, 255}, color.RGBA{110, 90, 130, 255}},
		{"cool clamps", ToneCool, color.RGBA{240, 10, 220, 255}, color.RGBA{255, 9, 255, 255}},
		{"mono", ToneMono, color.RGBA{10, 20, 31, 255}, color.RGBA{20, 20, 20, 255}},
		{"mono white", ToneMono, color.RGBA{255, 255, 255, 255}, color.RGBA{255, 255, 255, 255}},
		{"none", ToneNone, color.RGBA{1, 2, 3, 4}, color.RGBA{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solid(3, 2, tt.in)
			ToneFilter{Tone: tt.tone}.Apply(img)
			for y := 0; y < 2; y++ {
				for x := 0; x < 3; x++ {
					if got := img.RGBAAt(x, y); got != tt.want {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, tt.want)
					}
				}
			}
		})
	}
}

func TestApplyToneSubImage(t *testing.T) {
	img := solid(4, 4, color.RGBA{100, 100, 100, 255})
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	ApplyTone(sub, ToneWarm)
	if got := img.RGBAAt(0, 0); got.R != 100 {
		t.Errorf("pixel outside sub-image changed: %v", got)
	}
	if got := img.RGBAAt(2, 2); got.R != 120 {
		t.Errorf("pixel inside sub-image = %v, want R=120", got)
	}
}

func TestApplyGlitchZeroIntensity(t *testing.T) {
	img := ramp(8, 4)
	before := append([]uint8(nil), img.Pix...)
	ApplyGlitch(img, 0)
	ApplyGlitchWith(img, -1, &seq{vals: []float64{0.9}})
	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatalf("zero intensity modified byte %d", i)
		}
	}
}

func TestApplyGlitchSliceShift(t *testing.T) {
	img := ramp(4, 2)
	// 1 slice at row 0, height 1, shift floor(0.25*40*0.5)=5 -> 1; no aberration.
	ApplyGlitchWith(img, 0.5, &seq{vals: []float64{0.5, 0.0, 0.0, 0.75, 0.9}})
	want := []uint8{3, 0, 1, 2, 4, 5, 6, 7}
	got := reds(img)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reds = %v, want %v", got, want)
		}
	}
	if img.Pix[1] != 100 || img.Pix[2] != 200 || img.Pix[3] != 255 {
		t.Errorf("shifted pixel lost channels: %v", img.Pix[:4])
	}
}

func TestApplyGlitchNegativeShift(t *testing.T) {
	img := ramp(4, 1)
	// 1 slice, shift floor(-0.01*40*0.9) = -1; no aberration.
	ApplyGlitchWith(img, 0.9, &seq{vals: []float64{0.3, 0.0, 0.0, 0.49, 0.95}})
	want := []uint8{1, 2, 3, 0}
	got := reds(img)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reds = %v, want %v", got, want)
		}
	}
}

func TestApplyGlitchRedChannel(t *testing.T) {
	img := ramp(4, 2)
	// no slices, aberration 0.1 < 0.5 with offset int(0.25*5)+1 = 2.
	ApplyGlitchWith(img, 0.5, &seq{vals: []float64{0.0, 0.1, 0.25}})
	want := []uint8{2, 3, 4, 5, 6, 7, 6, 7}
	got := reds(img)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reds = %v, want %v", got, want)
		}
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i+1] != 100 || img.Pix[i+2] != 200 {
			t.Fatalf("non-red channel changed at pixel %d", i/4)
		}
	}
}

func TestApplyGlitchSliceClippedAtBottom(t *testing.T) {
	img := ramp(3, 3)
	// slice starts at the last row with height 20, shift floor(0.05*40*0.8) = 1.
	ApplyGlitchWith(img, 0.8, &seq{vals: []float64{0.4, 0.99, 0.99, 0.55, 0.9}})
	want := []uint8{0, 1, 2, 3, 4, 5, 8, 6, 7}
	got := reds(img)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reds = %v, want %v", got, want)
		}
	}
}

func TestChain(t *testing.T) {
	img := solid(2, 2, color.RGBA{100, 100, 100, 255})
	Chain{ToneFilter{Tone: ToneWarm}, ToneFilter{Tone: ToneMono}}.Apply(img)
	if got := img.RGBAAt(1, 1); got != (color.RGBA{100, 100, 100, 255}) {
		t.Errorf("chain result = %v", got)
	}
}
