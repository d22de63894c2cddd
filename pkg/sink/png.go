package sink

import (
	"bufio"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/llumina/pkg/errors"
)

// PNGOption configures a PNG sequence.
type PNGOption func(*PNGSequence)

// WithWorkers bounds concurrent encoders (default GOMAXPROCS).
func WithWorkers(n int) PNGOption {
	return func(s *PNGSequence) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithCompression sets the PNG compression level (default png.BestSpeed).
func WithCompression(level png.CompressionLevel) PNGOption {
	return func(s *PNGSequence) { s.encoder.CompressionLevel = level }
}

// PNGSequence writes each frame to dir/frame_NNNNN.png.
type PNGSequence struct {
	dir     string
	workers int
	encoder png.Encoder
	group   *errgroup.Group
	ctx     context.Context
	written atomic.Int64
}

// NewPNGSequence creates dir and returns a sink writing into it.
func NewPNGSequence(ctx context.Context, dir string, opts ...PNGOption) (*PNGSequence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	s := &PNGSequence{
		dir:     dir,
		workers: runtime.GOMAXPROCS(0),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.group, s.ctx = errgroup.WithContext(ctx)
	s.group.SetLimit(s.workers)
	return s, nil
}

// FrameName returns the file name of frame i.
func FrameName(i int) string { return fmt.Sprintf("frame_%05d.png", i) }

// Write schedules the frame for encoding. It blocks while all workers are
// busy and returns the first encoding error seen so far.
func (s *PNGSequence) Write(ctx context.Context, f Frame) error {
	if err := s.ctx.Err(); err != nil {
		if werr := s.group.Wait(); werr != nil {
			return werr
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, FrameName(f.Index))
	s.group.Go(func() error {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		if err := s.encodeFile(path, f); err != nil {
			return err
		}
		s.written.Add(1)
		return nil
	})
	return nil
}

func (s *PNGSequence) encodeFile(path string, f Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	w := bufio.NewWriter(file)
	if err := s.encoder.Encode(w, f.Image); err != nil {
		file.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "encode frame %d", f.Index)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write frame %d", f.Index)
	}
	return file.Close()
}

// Written returns how many frames have been encoded.
func (s *PNGSequence) Written() int { return int(s.written.Load()) }

// Dir returns the output directory.
func (s *PNGSequence) Dir() string { return s.dir }

// Close waits for all pending encodes.
func (s *PNGSequence) Close() error { return s.group.Wait() }

var _ Sink = (*PNGSequence)(nil)
