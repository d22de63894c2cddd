package compositor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/filter"
	"github.com/matzehuels/llumina/pkg/reveal"
)

const (
	// DefaultDuration is the length of an export animation. Accents are only
	// drawn on frames whose elapsed time is below the duration.
	DefaultDuration = 6 * time.Second

	// DefaultUnitLabel follows the counter value in the overlay.
	DefaultUnitLabel = "TOTAL FOLLOWERS"

	// Settled is the elapsed time of a frame outside any animation.
	Settled time.Duration = -1

	referenceWidth = 1080.0
)

// Options configures a Compositor.
type Options struct {
	Width         int
	Height        int
	Seed          string
	MaskColor     string // "#RRGGBB"
	PixelsPerUnit float64
	UnitLabel     string
	Locale        string // BCP 47 tag for number formatting

	// Filters run over the image pixels of every frame, before the mask.
	Filters filter.Chain

	HideText bool
	Accents  bool
	Duration time.Duration

	// Interpolator scales the base image. Defaults to ApproxBiLinear.
	Interpolator xdraw.Interpolator
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.MaskColor == "" {
		o.MaskColor = "#000000"
	}
	if o.PixelsPerUnit == 0 {
		o.PixelsPerUnit = 1
	}
	if o.UnitLabel == "" {
		o.UnitLabel = DefaultUnitLabel
	}
	if o.Locale == "" {
		o.Locale = "en-US"
	}
	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}
	if o.Interpolator == nil {
		o.Interpolator = xdraw.ApproxBiLinear
	}
}

// Validate checks the options a compositor cannot recover from.
func (o *Options) Validate() error {
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if _, err := reveal.ParseHexColor(o.MaskColor); err != nil {
		return err
	}
	if o.PixelsPerUnit <= 0 || math.IsNaN(o.PixelsPerUnit) || math.IsInf(o.PixelsPerUnit, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "pixels per unit must be a positive number, got %v", o.PixelsPerUnit)
	}
	if o.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "duration must not be negative")
	}
	return nil
}

// FrameParams are the per-frame inputs. The zero Zoom is treated as 1.
type FrameParams struct {
	Counter float64       // displayed counter, fractional while easing
	Day     int           // day shown in the overlay
	Zoom    float64       // >= 1, applied on top of cover scaling
	Elapsed time.Duration // animation clock, Settled outside animations
}

// Still returns the parameters of a frame outside any animation.
func Still(counter float64, day int) FrameParams {
	return FrameParams{Counter: counter, Day: day, Zoom: 1, Elapsed: Settled}
}

// Stats describes the reveal state of a composed frame.
type Stats struct {
	Pixels   int     // floor(counter * pixelsPerUnit)
	Revealed int     // Pixels clamped to the canvas
	Total    int     // width * height
	Percent  float64 // Pixels / Total * 100, clamped to [0, 100]
}

// PercentText formats Percent with one decimal place.
func (s Stats) PercentText() string { return formatPercent(s.Percent) }

// Compositor renders frames for one base image and one reveal order.
type Compositor struct {
	opts    Options
	engine  *reveal.Engine
	base    image.Image
	mask    color.RGBA
	printer *message.Printer

	layer     *image.RGBA // mask-color fill plus placed base image
	layerZoom float64
	frame     *image.RGBA
	faces     *overlayFaces
}

// New validates opts, builds the reveal permutation and returns a
// compositor for base. Building the permutation honors ctx cancellation.
func New(ctx context.Context, base image.Image, opts Options) (*Compositor, error) {
	if base == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "base image is required")
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	mc, err := reveal.ParseHexColor(opts.MaskColor)
	if err != nil {
		return nil, err
	}

	engine, err := reveal.New(opts.Width, opts.Height, opts.Seed)
	if err != nil {
		return nil, err
	}
	if err := engine.Initialize(ctx); err != nil {
		return nil, err
	}

	tag, err := language.Parse(opts.Locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	return &Compositor{
		opts:    opts,
		engine:  engine,
		base:    base,
		mask:    mc,
		printer: message.NewPrinter(tag),
	}, nil
}

// Options returns the effective options.
func (c *Compositor) Options() Options { return c.opts }

// Bounds returns the canvas rectangle.
func (c *Compositor) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.opts.Width, c.opts.Height)
}

// Total returns the number of canvas pixels.
func (c *Compositor) Total() int { return c.opts.Width * c.opts.Height }

// PixelsFor converts a counter value into a reveal target.
func (c *Compositor) PixelsFor(counter float64) int {
	return reveal.PixelsToReveal(counter, c.opts.PixelsPerUnit)
}

// Frame composes into the compositor's own buffer and returns it. The
// buffer is overwritten by the next call.
func (c *Compositor) Frame(p FrameParams) (*image.RGBA, Stats, error) {
	if c.frame == nil {
		c.frame = image.NewRGBA(c.Bounds())
	}
	st, err := c.Compose(c.frame, p)
	if err != nil {
		return nil, Stats{}, err
	}
	return c.frame, st, nil
}

// Compose renders one frame into dst, which must cover exactly the canvas.
func (c *Compositor) Compose(dst *image.RGBA, p FrameParams) (Stats, error) {
	if dst == nil || dst.Rect != c.Bounds() {
		return Stats{}, errors.New(errors.ErrCodeInvalidDimensions, "frame buffer must be %dx%d", c.opts.Width, c.opts.Height)
	}
	zoom := p.Zoom
	if !(zoom >= 1) || math.IsInf(zoom, 0) {
		zoom = 1
	}

	c.placeImage(zoom)
	draw.Draw(dst, dst.Rect, c.layer, image.Point{}, draw.Src)
	c.opts.Filters.Apply(dst)

	st := c.StatsFor(p.Counter)
	mask, err := c.engine.GenerateMaskColor(st.Pixels, c.mask)
	if err != nil {
		return Stats{}, err
	}
	draw.Draw(dst, dst.Rect, mask, image.Point{}, draw.Over)

	if c.opts.HideText && !c.animating(p.Elapsed) {
		return st, nil
	}
	dc := gg.NewContextForRGBA(dst)
	if c.animating(p.Elapsed) {
		c.drawAccents(dc, p.Elapsed)
	}
	if !c.opts.HideText {
		if err := c.drawText(dst, dc, p, st); err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

// Mask moves the reveal to counter and returns the engine's live mask.
func (c *Compositor) Mask(counter float64) (*image.NRGBA, Stats, error) {
	st := c.StatsFor(counter)
	m, err := c.engine.GenerateMaskColor(st.Pixels, c.mask)
	if err != nil {
		return nil, Stats{}, err
	}
	return m, st, nil
}

// StatsFor returns the reveal statistics of counter without touching the
// mask.
func (c *Compositor) StatsFor(counter float64) Stats {
	pixels := c.PixelsFor(counter)
	total := c.Total()
	return Stats{
		Pixels:   pixels,
		Revealed: min(pixels, total),
		Total:    total,
		Percent:  reveal.Percent(pixels, total),
	}
}

// ResetMask hides every pixel again. Used when switching days.
func (c *Compositor) ResetMask() { c.engine.ResetMask() }

// SetBase replaces the base image and resets the mask.
func (c *Compositor) SetBase(img image.Image) error {
	if img == nil {
		return errors.New(errors.ErrCodeInvalidInput, "base image is required")
	}
	c.base = img
	c.layer = nil
	c.engine.ResetMask()
	return nil
}

// SetMaskColor changes the mask color of subsequent frames.
func (c *Compositor) SetMaskColor(hex string) error {
	mc, err := reveal.ParseHexColor(hex)
	if err != nil {
		return err
	}
	c.opts.MaskColor = hex
	c.mask = mc
	c.layer = nil
	return nil
}

// SetFilters replaces the filter chain.
func (c *Compositor) SetFilters(chain filter.Chain) { c.opts.Filters = chain }

// SetOverlay switches the text overlay and the animation accents.
func (c *Compositor) SetOverlay(hideText, accents bool) {
	c.opts.HideText = hideText
	c.opts.Accents = accents
}

// SetDuration sets the animation length that bounds the accents.
func (c *Compositor) SetDuration(d time.Duration) {
	if d <= 0 {
		d = DefaultDuration
	}
	c.opts.Duration = d
}

// SetUnitLabel replaces the label printed after the counter.
func (c *Compositor) SetUnitLabel(label string) {
	if label == "" {
		label = DefaultUnitLabel
	}
	c.opts.UnitLabel = label
}

// Close releases the engine buffers and font faces.
func (c *Compositor) Close() error {
	c.engine.Release()
	c.layer, c.frame = nil, nil
	if c.faces != nil {
		c.faces.close()
		c.faces = nil
	}
	return nil
}

func (c *Compositor) animating(elapsed time.Duration) bool {
	return c.opts.Accents && elapsed >= 0 && elapsed < c.opts.Duration
}

// placeImage rebuilds the image layer when the zoom changes: the canvas is
// filled with the mask color and the base image is drawn with cover scaling
// times zoom, centered.
func (c *Compositor) placeImage(zoom float64) {
	if c.layer != nil && c.layerZoom == zoom {
		return
	}
	if c.layer == nil {
		c.layer = image.NewRGBA(c.Bounds())
	}
	draw.Draw(c.layer, c.layer.Rect, image.NewUniform(c.mask), image.Point{}, draw.Src)

	b := c.base.Bounds()
	if !b.Empty() {
		w, h := float64(c.opts.Width), float64(c.opts.Height)
		iw, ih := float64(b.Dx()), float64(b.Dy())
		scale := max(w/iw, h/ih) * zoom
		dw, dh := iw*scale, ih*scale
		x, y := (w-dw)/2, (h-dh)/2
		dr := image.Rect(
			int(math.Floor(x)), int(math.Floor(y)),
			int(math.Ceil(x+dw)), int(math.Ceil(y+dh)),
		)
		c.opts.Interpolator.Scale(c.layer, dr, c.base, b, xdraw.Over, nil)
	}
	c.layerZoom = zoom
}

// formatPercent formats p with one decimal, rounding exact ties away from
// zero as a browser's toFixed does. Only multiples of 0.25 can be exact ties
// in binary; 0.15 is stored just below the midpoint and rounds down.
func formatPercent(p float64) string {
	q := p * 4
	if q == math.Trunc(q) && math.Mod(q*5, 2) == 1 {
		return fmt.Sprintf("%.1f", (math.Floor(p*10)+1)/10)
	}
	return fmt.Sprintf("%.1f", p)
}
