package compositor

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/llumina/pkg/fonts"
)

// Overlay metrics at the 1080-pixel reference width.
const (
	daySize      = 54
	labelSize    = 40
	percentSize  = 120
	dayY         = 200
	labelY       = 270
	percentInset = 220
	shadowBlur   = 15
	shadowAlpha  = 0.8
)

// Accent timing.
const (
	scanPeriod  = 2 * time.Second
	markerCount = 6
	goldenRatio = 0.6180339887498949
)

type overlayFaces struct {
	day, label, percent font.Face
}

func (f *overlayFaces) close() {
	for _, face := range []font.Face{f.day, f.label, f.percent} {
		if face != nil {
			_ = face.Close()
		}
	}
}

func (c *Compositor) scale() float64 { return float64(c.opts.Width) / referenceWidth }

func (c *Compositor) overlayFaces() (*overlayFaces, error) {
	if c.faces != nil {
		return c.faces, nil
	}
	s := c.scale()
	f := &overlayFaces{}
	var err error
	if f.day, err = fonts.NewFace(fonts.Bold, daySize*s); err != nil {
		return nil, err
	}
	if f.label, err = fonts.NewFace(fonts.Regular, labelSize*s); err != nil {
		f.close()
		return nil, err
	}
	if f.percent, err = fonts.NewFace(fonts.MonoBold, percentSize*s); err != nil {
		f.close()
		return nil, err
	}
	c.faces = f
	return f, nil
}

// CounterText formats the counter line: the floored value with locale
// grouping, then the unit label.
func (c *Compositor) CounterText(counter float64) string {
	n := int64(math.Floor(max(counter, 0)))
	return c.printer.Sprintf("%d", n) + " " + c.opts.UnitLabel
}

func (c *Compositor) drawText(dst *image.RGBA, dc *gg.Context, p FrameParams, st Stats) error {
	faces, err := c.overlayFaces()
	if err != nil {
		return err
	}
	s := c.scale()
	cx := float64(c.opts.Width) / 2

	drawLabel(dst, dc, fmt.Sprintf("DAY %d", p.Day), faces.day, cx, dayY*s, s)
	drawLabel(dst, dc, c.CounterText(p.Counter), faces.label, cx, labelY*s, s)
	drawLabel(dst, dc, st.PercentText()+"%", faces.percent, cx, float64(c.opts.Height)-percentInset*s, s)
	return nil
}

// drawLabel draws white text centered on cx with its baseline at y, over a
// blurred dark shadow. The shadow is rendered into a patch around the text
// only, so the blur cost does not grow with the canvas.
func drawLabel(dst *image.RGBA, dc *gg.Context, text string, face font.Face, cx, y, scale float64) {
	width := float64(font.MeasureString(face, text)) / 64
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()

	sigma := shadowBlur * scale / 2
	pad := int(math.Ceil(sigma * 3))
	patch := gg.NewContext(int(math.Ceil(width))+2*pad, ascent+descent+2*pad)
	patch.SetFontFace(face)
	patch.SetRGBA(0, 0, 0, shadowAlpha)
	patch.DrawString(text, float64(pad), float64(pad+ascent))

	var shadow image.Image = patch.Image()
	if sigma > 0 {
		shadow = imaging.Blur(shadow, sigma)
	}
	origin := image.Pt(int(math.Round(cx-width/2))-pad, int(math.Round(y))-ascent-pad)
	draw.Draw(dst, shadow.Bounds().Add(origin), shadow, image.Point{}, draw.Over)

	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, cx, y, 0.5, 0)
}

// drawAccents draws a horizontal scan line sweeping down the canvas and a
// few markers drifting upward. Both are pure functions of elapsed.
func (c *Compositor) drawAccents(dc *gg.Context, elapsed time.Duration) {
	w, h := float64(c.opts.Width), float64(c.opts.Height)
	s := c.scale()
	t := elapsed.Seconds()

	y := float64(elapsed%scanPeriod) / float64(scanPeriod) * h
	dc.SetRGBA(1, 1, 1, 0.25)
	dc.DrawRectangle(0, y, w, math.Max(3*s, 1))
	dc.Fill()

	for i := 0; i < markerCount; i++ {
		fi := float64(i)
		_, frac := math.Modf(fi * goldenRatio)
		x := w * (0.1 + 0.8*frac)
		speed := h * (0.05 + 0.03*fi)
		my := h - math.Mod(t*speed+fi*h/markerCount, h)
		r := math.Max((5+2*math.Sin(t*3+fi))*s, 1)
		dc.SetRGBA(1, 1, 1, 0.35+0.2*math.Sin(t*2+fi))
		dc.DrawCircle(x, my, r)
		dc.Fill()
	}
}
