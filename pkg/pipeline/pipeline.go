// Package pipeline renders reveal frames and animations for a project.
//
// This package sits between the entry points (CLI commands, the preview
// server) and the compositor. It owns the decisions they must agree on:
// option defaults, the export timeline, which artifacts may be cached and
// under which keys.
//
// # Architecture
//
// A render goes through three stages:
//
//  1. Scene: load the project's base image and hash everything a frame
//     depends on ([LoadScene], [NewScene])
//  2. Compositor: build the reveal permutation for the scene
//     ([Runner.NewCompositor]); this is the expensive step and its result
//     is reused for every frame of a session or export
//  3. Output: a still frame or mask as PNG ([Runner.RenderFrame],
//     [Runner.RenderMask]) or an eased animation into a sink
//     ([Runner.Export], [Runner.ExportBytes])
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	scene, err := pipeline.LoadScene(proj)
//	if err != nil {
//	    return err
//	}
//	comp, err := runner.NewCompositor(ctx, scene, opts)
//	if err != nil {
//	    return err
//	}
//	defer comp.Close()
//
//	frame, err := runner.RenderFrame(ctx, comp, scene, pipeline.Options{Day: 3, Counter: 5000})
//	// frame.Data holds the PNG bytes
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/llumina/pkg/cache"
	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/filter"
	"github.com/matzehuels/llumina/pkg/persona"
	"github.com/matzehuels/llumina/pkg/prng"
	"github.com/matzehuels/llumina/pkg/project"
	"github.com/matzehuels/llumina/pkg/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultFPS is the export frame rate.
	DefaultFPS = 30

	// DefaultDuration is the length of an exported animation.
	DefaultDuration = 6 * time.Second

	// DefaultEase is how long the counter takes to ease from the start
	// value to the end value. The rest of the animation holds the end value
	// while the zoom keeps drifting.
	DefaultEase = time.Second

	// DefaultZoomGain is the zoom added over the whole animation.
	DefaultZoomGain = 0.05

	// DefaultAnimatedScale is the output scale for APNG and GIF exports.
	// Full 1080x1920 frames would hold several gigabytes in memory before
	// the encoder runs.
	DefaultAnimatedScale = 0.5

	// MaxFPS and MaxDuration bound the number of exported frames.
	MaxFPS      = 120
	MaxDuration = time.Minute
)

// =============================================================================
// Options - Render Configuration
// =============================================================================

// Options contains the per-request configuration of a render or export.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Frame options
	Day     int     `json:"day,omitempty"`     // active day, 1-based
	Counter float64 `json:"counter"`           // raw count entered for Day
	Zoom    float64 `json:"zoom,omitempty"`    // still frames only
	Refresh bool    `json:"refresh,omitempty"` // skip cache lookups

	// Look options; empty values follow the project persona
	Tone     string  `json:"tone,omitempty"`
	Glitch   float64 `json:"glitch,omitempty"`
	NoGlitch bool    `json:"no_glitch,omitempty"`
	HideText bool    `json:"hide_text,omitempty"`

	// Export options
	Format       string        `json:"format,omitempty"`
	FPS          int           `json:"fps,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Ease         time.Duration `json:"ease,omitempty"`
	Scale        float64       `json:"scale,omitempty"`
	Start        *float64      `json:"start,omitempty"` // explicit start value
	FromPrevious bool          `json:"from_previous,omitempty"`
	NoAccents    bool          `json:"no_accents,omitempty"`
	Workers      int           `json:"workers,omitempty"` // PNG sequence encoders

	// Runtime options (not serialized)
	Logger       *log.Logger           `json:"-"`
	GlitchSource prng.Source           `json:"-"` // nil seeds glitches from the clock
	Progress     func(done, total int) `json:"-"` // called after each exported frame
}

// SetRenderDefaults sets default values for still renders.
func (o *Options) SetRenderDefaults() {
	if o.Day == 0 {
		o.Day = 1
	}
	if o.Zoom == 0 {
		o.Zoom = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for still renders.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Day < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "day must be >= 1, got %d", o.Day)
	}
	if !finite(o.Counter) || o.Counter < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "counter must be a non-negative number, got %v", o.Counter)
	}
	if !finite(o.Zoom) || o.Zoom < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "zoom must be >= 1, got %v", o.Zoom)
	}
	if _, err := filter.ParseTone(o.Tone); err != nil {
		return err
	}
	if !finite(o.Glitch) || o.Glitch < 0 || o.Glitch > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "glitch must be within [0, 1], got %v", o.Glitch)
	}
	return nil
}

// SetExportDefaults sets default values for animation exports.
func (o *Options) SetExportDefaults() {
	o.SetRenderDefaults()
	if f, err := sink.ParseFormat(o.Format); err == nil {
		o.Format = f
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}
	if o.Ease == 0 {
		o.Ease = DefaultEase
	}
	if o.Scale == 0 {
		o.Scale = 1
		if o.Format != sink.FormatPNGSequence {
			o.Scale = DefaultAnimatedScale
		}
	}
}

// ValidateForExport validates and sets defaults for animation exports.
func (o *Options) ValidateForExport() error {
	o.SetExportDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	if _, err := sink.ParseFormat(o.Format); err != nil {
		return err
	}
	if o.FPS < 1 || o.FPS > MaxFPS {
		return errors.New(errors.ErrCodeInvalidInput, "fps must be within [1, %d], got %d", MaxFPS, o.FPS)
	}
	if o.Duration <= 0 || o.Duration > MaxDuration {
		return errors.New(errors.ErrCodeInvalidInput, "duration must be within (0, %s], got %s", MaxDuration, o.Duration)
	}
	if o.Ease < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "ease must not be negative, got %s", o.Ease)
	}
	if !finite(o.Scale) || o.Scale <= 0 || o.Scale > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be within (0, 1], got %v", o.Scale)
	}
	if o.Start != nil && (!finite(*o.Start) || *o.Start < 0) {
		return errors.New(errors.ErrCodeInvalidInput, "start must be a non-negative number, got %v", *o.Start)
	}
	return nil
}

// Filters returns the filter chain for a persona, with the tone and glitch
// overrides of o applied.
func (o *Options) Filters(p persona.Persona) filter.Chain {
	prof := p.Profile()
	if t, err := filter.ParseTone(o.Tone); err == nil && o.Tone != "" {
		prof.Tone = t
	}
	chain := prof.Filters(o.GlitchSource)
	if o.Glitch == 0 && !o.NoGlitch {
		return chain
	}
	out := make(filter.Chain, 0, len(chain)+1)
	for _, f := range chain {
		if _, ok := f.(filter.GlitchFilter); !ok {
			out = append(out, f)
		}
	}
	if !o.NoGlitch {
		out = append(out, filter.GlitchFilter{Intensity: o.Glitch, Rand: o.GlitchSource})
	}
	return out
}

// Cacheable reports whether frames rendered with o for persona p are
// reproducible. Glitched frames draw from a clock-seeded generator and are
// never cached.
func (o *Options) Cacheable(p persona.Persona) bool {
	for _, f := range o.Filters(p) {
		if _, ok := f.(filter.GlitchFilter); ok {
			return false
		}
	}
	return true
}

// Display returns the counter value shown for o.Day in the project's mode.
func (o *Options) Display(p *project.Project) float64 {
	return p.Display(o.Day, o.Counter)
}

// StartValue returns the first value of an export: Start when set, the
// previous day's display value with FromPrevious, otherwise the end value.
func (o *Options) StartValue(p *project.Project) float64 {
	switch {
	case o.Start != nil:
		return *o.Start
	case o.FromPrevious:
		return project.PreviousDisplayValue(p.Days, o.Day, p.RevealMode)
	}
	return o.Display(p)
}

// FrameKeyOpts returns cache key options for a still frame.
func (o *Options) FrameKeyOpts(display float64) cache.FrameKeyOpts {
	return cache.FrameKeyOpts{
		Counter: display,
		Day:     o.Day,
		Zoom:    o.Zoom,
		Elapsed: -1,
		Look:    o.lookKey(),
	}
}

// ExportKeyOpts returns cache key options for an exported animation.
func (o *Options) ExportKeyOpts(start, end float64) cache.ExportKeyOpts {
	return cache.ExportKeyOpts{
		Format:     o.Format,
		Day:        o.Day,
		Start:      start,
		End:        end,
		DurationMS: o.Duration.Milliseconds(),
		EaseMS:     o.Ease.Milliseconds(),
		FPS:        o.FPS,
		Scale:      o.Scale,
		Look:       o.lookKey(),
	}
}

func (o *Options) lookKey() string {
	key := o.Tone
	if o.HideText {
		key += "+notext"
	}
	if o.NoAccents {
		key += "+noaccents"
	}
	return key
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
