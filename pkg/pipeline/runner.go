package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/llumina/pkg/cache"
	"github.com/matzehuels/llumina/pkg/compositor"
	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/observability"
	"github.com/matzehuels/llumina/pkg/persona"
	"github.com/matzehuels/llumina/pkg/sink"
)

// Runner encapsulates rendering with caching.
// Both the CLI and the preview server use it to avoid duplicating caching
// logic.
//
// The Runner is stateless except for the cache and logger. Compositors are
// owned by the caller; a compositor must not be used by two goroutines at
// once, but one Runner can serve any number of compositors.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// Artifact is an encoded render.
type Artifact struct {
	Data     []byte
	Stats    compositor.Stats
	CacheHit bool
}

// ExportResult summarizes an export.
type ExportResult struct {
	Frames   int
	Start    float64
	End      float64
	Duration time.Duration // wall time spent rendering and encoding
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// NewCompositor builds the reveal order for scene and returns a compositor
// configured for opts.
func (r *Runner) NewCompositor(ctx context.Context, scene *Scene, opts Options) (*compositor.Compositor, error) {
	p := scene.Project
	w, h := p.Resolution.Width, p.Resolution.Height
	hooks := observability.Pipeline()

	hooks.OnInitStart(ctx, w, h)
	start := time.Now()
	c, err := compositor.New(ctx, scene.Image, compositor.Options{
		Width:         w,
		Height:        h,
		Seed:          p.Seed,
		MaskColor:     p.MaskColor,
		PixelsPerUnit: p.PixelsPerUnit,
		UnitLabel:     p.UnitLabel(),
		Locale:        p.Locale,
		Filters:       opts.Filters(p.Persona),
		HideText:      opts.HideText,
		Accents:       !opts.NoAccents,
		Duration:      opts.Duration,
	})
	elapsed := time.Since(start)
	hooks.OnInitComplete(ctx, w, h, elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	r.Logger.Debug("built reveal order",
		"width", w,
		"height", h,
		"duration", elapsed)
	return c, nil
}

// RenderFrame composes the still frame described by opts and encodes it as
// PNG. Cached frames are returned without touching c.
func (r *Runner) RenderFrame(ctx context.Context, c *compositor.Compositor, scene *Scene, opts Options) (*Artifact, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	p := scene.Project
	display := opts.Display(p)
	cacheable := opts.Cacheable(p.Persona)
	key := r.Keyer.FrameKey(scene.Hash, opts.FrameKeyOpts(display))

	if cacheable && !opts.Refresh {
		if data, ok := r.lookup(ctx, "frame", key); ok {
			return &Artifact{Data: data, Stats: c.StatsFor(display), CacheHit: true}, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnFrameStart(ctx, "frame")
	start := time.Now()

	r.configure(c, p.Persona, opts)
	img, st, err := c.Frame(compositor.FrameParams{
		Counter: display,
		Day:     opts.Day,
		Zoom:    opts.Zoom,
		Elapsed: compositor.Settled,
	})
	var data []byte
	if err == nil {
		data, err = encodePNG(img)
	}
	hooks.OnFrameComplete(ctx, "frame", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render frame: %w", err)
	}

	if cacheable {
		r.store(ctx, "frame", key, data, cache.FrameTTL)
	}
	return &Artifact{Data: data, Stats: st}, nil
}

// RenderMask encodes the reveal mask for opts as PNG: mask color where
// hidden, transparent where revealed. Masks carry no filters or text and
// are always cacheable.
func (r *Runner) RenderMask(ctx context.Context, c *compositor.Compositor, scene *Scene, opts Options) (*Artifact, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	p := scene.Project
	display := opts.Display(p)
	st := c.StatsFor(display)
	key := r.Keyer.MaskKey(scene.Hash, cache.MaskKeyOpts{
		Pixels: st.Revealed,
		Color:  c.Options().MaskColor,
	})

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, "mask", key); ok {
			return &Artifact{Data: data, Stats: st, CacheHit: true}, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnFrameStart(ctx, "mask")
	start := time.Now()

	m, st, err := c.Mask(display)
	var data []byte
	if err == nil {
		data, err = encodePNG(m)
	}
	hooks.OnFrameComplete(ctx, "mask", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render mask: %w", err)
	}

	r.store(ctx, "mask", key, data, cache.MaskTTL)
	return &Artifact{Data: data, Stats: st}, nil
}

// Export renders the eased animation described by opts into s and closes
// s. Every frame handed to s is a copy, so sinks may keep or encode frames
// asynchronously.
func (r *Runner) Export(ctx context.Context, c *compositor.Compositor, scene *Scene, opts Options, s sink.Sink) (*ExportResult, error) {
	if err := opts.ValidateForExport(); err != nil {
		_ = s.Close()
		return nil, err
	}
	p := scene.Project
	tl := NewTimeline(opts, opts.StartValue(p), opts.Display(p))
	n := tl.Frames()

	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Format, n)
	start := time.Now()

	r.configure(c, p.Persona, opts)
	err := r.exportFrames(ctx, c, tl, opts, s)
	if cerr := s.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("finalize %s: %w", opts.Format, cerr)
	}
	elapsed := time.Since(start)
	hooks.OnExportComplete(ctx, opts.Format, n, elapsed, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("exported animation",
		"format", opts.Format,
		"frames", n,
		"from", tl.Start,
		"to", tl.End,
		"duration", elapsed)
	return &ExportResult{Frames: n, Start: tl.Start, End: tl.End, Duration: elapsed}, nil
}

func (r *Runner) exportFrames(ctx context.Context, c *compositor.Compositor, tl Timeline, opts Options, s sink.Sink) error {
	n := tl.Frames()
	step := max(n/10, 1)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, _, err := c.Frame(tl.At(i))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		frame := sink.Frame{
			Index: i,
			Image: scaleFrame(img, opts.Scale),
			Delay: sink.Delay(i, tl.FPS),
		}
		if err := s.Write(ctx, frame); err != nil {
			return fmt.Errorf("write frame %d: %w", i, err)
		}
		if opts.Progress != nil {
			opts.Progress(i+1, n)
		}
		if (i+1)%step == 0 {
			r.Logger.Debug("exporting", "progress", fmt.Sprintf("%d%%", (i+1)*100/n))
		}
	}
	return nil
}

// ExportBytes renders a single-file animation (APNG or GIF) into memory.
// Results are cached unless the frames are glitched.
func (r *Runner) ExportBytes(ctx context.Context, c *compositor.Compositor, scene *Scene, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}
	p := scene.Project
	start, end := opts.StartValue(p), opts.Display(p)
	cacheable := opts.Cacheable(p.Persona)
	key := r.Keyer.ExportKey(scene.Hash, opts.ExportKeyOpts(start, end))

	if cacheable && !opts.Refresh {
		if data, ok := r.lookup(ctx, "export", key); ok {
			return data, true, nil
		}
	}

	var buf bytes.Buffer
	s, err := sink.NewAnimated(opts.Format, &buf)
	if err != nil {
		return nil, false, err
	}
	if _, err := r.Export(ctx, c, scene, opts, s); err != nil {
		return nil, false, err
	}

	data := buf.Bytes()
	if cacheable {
		r.store(ctx, "export", key, data, cache.ExportTTL)
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// configure applies the per-request look of opts to c.
func (r *Runner) configure(c *compositor.Compositor, p persona.Persona, opts Options) {
	c.SetFilters(opts.Filters(p))
	c.SetOverlay(opts.HideText, !opts.NoAccents)
	c.SetDuration(opts.Duration)
}

func (r *Runner) lookup(ctx context.Context, kind, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "error", err)
		return nil, false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, kind)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, kind)
	return nil, false
}

func (r *Runner) store(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// scaleFrame returns a copy of img scaled by scale.
func scaleFrame(img *image.RGBA, scale float64) *image.RGBA {
	b := img.Bounds()
	if scale >= 1 {
		out := image.NewRGBA(b)
		draw.Draw(out, b, img, b.Min, draw.Src)
		return out
	}
	w := max(int(math.Round(float64(b.Dx())*scale)), 1)
	h := max(int(math.Round(float64(b.Dy())*scale)), 1)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(out, out.Rect, img, b, xdraw.Src, nil)
	return out
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}
