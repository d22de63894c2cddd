package sink

import (
	"context"
	"image"
	"io"

	"github.com/setanarut/apng"

	"github.com/matzehuels/llumina/pkg/errors"
)

// APNGOption configures an APNG sink.
type APNGOption func(*APNG)

// WithLoopCount sets how often the animation repeats; 0 loops forever.
func WithLoopCount(n uint32) APNGOption {
	return func(s *APNG) { s.anim.LoopCount = n }
}

// APNG collects frames and encodes one animated PNG on Close.
type APNG struct {
	w    io.Writer
	anim apng.APNG
}

// NewAPNG returns a sink that writes an animated PNG to w. The animation
// loops forever by default.
func NewAPNG(w io.Writer, opts ...APNGOption) *APNG {
	s := &APNG{w: w}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write buffers a frame.
func (s *APNG) Write(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.anim.Images = append(s.anim.Images, image.Image(f.Image))
	s.anim.Delays = append(s.anim.Delays, uint16(delayCentiseconds(f.Delay)))
	return nil
}

// Len returns the number of buffered frames.
func (s *APNG) Len() int { return len(s.anim.Images) }

// Close encodes the animation. Closing an empty sink writes nothing.
func (s *APNG) Close() error {
	if len(s.anim.Images) == 0 {
		return nil
	}
	if err := apng.EncodeAll(s.w, &s.anim); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode apng")
	}
	s.anim.Images, s.anim.Delays = nil, nil
	return nil
}

var _ Sink = (*APNG)(nil)
