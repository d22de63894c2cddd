package sink

import (
	"context"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"

	"github.com/matzehuels/llumina/pkg/errors"
)

// GIF quantizes frames as they arrive and encodes the animation on Close.
type GIF struct {
	w    io.Writer
	anim gif.GIF
}

// NewGIF returns a sink that writes an animated GIF to w.
func NewGIF(w io.Writer) *GIF {
	return &GIF{w: w}
}

// Write quantizes the frame to the Plan 9 palette with dithering.
func (s *GIF) Write(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := f.Image.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, f.Image, b.Min)
	s.anim.Image = append(s.anim.Image, p)
	s.anim.Delay = append(s.anim.Delay, delayCentiseconds(f.Delay))
	return nil
}

// Len returns the number of buffered frames.
func (s *GIF) Len() int { return len(s.anim.Image) }

// Close encodes the animation. Closing an empty sink writes nothing.
func (s *GIF) Close() error {
	if len(s.anim.Image) == 0 {
		return nil
	}
	if err := gif.EncodeAll(s.w, &s.anim); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode gif")
	}
	s.anim.Image, s.anim.Delay = nil, nil
	return nil
}

var _ Sink = (*GIF)(nil)
