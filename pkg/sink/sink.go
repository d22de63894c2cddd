package sink

import (
	"context"
	"image"
	"io"
	"os"
	"strings"
	"time"

	"github.com/matzehuels/llumina/pkg/errors"
)

// Output formats.
const (
	FormatPNGSequence = "png"
	FormatAPNG        = "apng"
	FormatGIF         = "gif"
)

// Formats lists every supported format.
var Formats = []string{FormatPNGSequence, FormatAPNG, FormatGIF}

// ParseFormat normalizes a format name.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	switch f {
	case FormatPNGSequence, FormatAPNG, FormatGIF:
		return f, nil
	case "":
		return FormatPNGSequence, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, apng, gif)", s)
}

// Frame is one exported frame. Image is owned by the sink once written.
type Frame struct {
	Index int
	Image *image.RGBA
	Delay time.Duration
}

// Sink consumes frames in order.
type Sink interface {
	// Write accepts the next frame.
	Write(ctx context.Context, f Frame) error

	// Close flushes pending work and finalizes the output. It must be
	// called even after a failed Write.
	Close() error
}

// Open creates a sink for format at path. For FormatPNGSequence path is a
// directory and pngOpts configure the encoders; for the animated formats it
// is the output file.
func Open(ctx context.Context, format, path string, pngOpts ...PNGOption) (Sink, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if format == FormatPNGSequence {
		return NewPNGSequence(ctx, path, pngOpts...)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	s, err := NewAnimated(format, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSink{Sink: s, file: f}, nil
}

// NewAnimated returns an APNG or GIF sink writing to w.
func NewAnimated(format string, w io.Writer) (Sink, error) {
	switch format {
	case FormatAPNG:
		return NewAPNG(w), nil
	case FormatGIF:
		return NewGIF(w), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "format %q is not a single-file animation", format)
}

// Delay returns the display time of frame i at fps as a duration.
func Delay(i, fps int) time.Duration {
	return time.Duration(Centiseconds(i, fps)) * 10 * time.Millisecond
}

// fileSink closes the underlying file after the wrapped sink finalizes.
type fileSink struct {
	Sink
	file io.Closer
}

func (s *fileSink) Close() error {
	err := s.Sink.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Centiseconds returns the delay of frame i (0-based) at fps frames per
// second in hundredths of a second, distributing rounding so the cumulative
// delay after frame i is round((i+1)*100/fps).
func Centiseconds(i, fps int) int {
	if fps <= 0 {
		return 0
	}
	at := func(n int) int { return (n*100*2 + fps) / (2 * fps) }
	return at(i+1) - at(i)
}

// delayCentiseconds converts a duration, rounding to nearest.
func delayCentiseconds(d time.Duration) int {
	return int((d + 5*time.Millisecond) / (10 * time.Millisecond))
}
