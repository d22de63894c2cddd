package project

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/persona"
	"github.com/matzehuels/llumina/pkg/reveal"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaskColor hides the image behind solid black.
	DefaultMaskColor = "#000000"

	// DefaultPixelsPerUnit is how many pixels one counter unit reveals.
	DefaultPixelsPerUnit = 10.0

	// DefaultLocale formats counter values.
	DefaultLocale = "en-US"

	// DefaultPlatform is the target platform for new projects.
	DefaultPlatform = PlatformTikTok
)

// RevealMode selects how day counts become the displayed counter.
type RevealMode string

// Reveal modes.
const (
	ModeTotal RevealMode = "TOTAL" // each count is the running total
	ModeDelta RevealMode = "DELTA" // each count is that day's increment
)

// ParseRevealMode parses a mode case-insensitively. The empty string is
// ModeTotal.
func ParseRevealMode(s string) (RevealMode, error) {
	m := RevealMode(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case "":
		return ModeTotal, nil
	case ModeTotal, ModeDelta:
		return m, nil
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "invalid reveal_mode: %q (must be one of: TOTAL, DELTA)", s)
}

// Platform names a target social platform. Each has a canvas preset.
type Platform string

// Supported platforms.
const (
	PlatformTikTok    Platform = "TikTok"
	PlatformInstagram Platform = "Instagram"
	PlatformShorts    Platform = "Shorts"
)

// Resolution is a canvas size in pixels.
type Resolution struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
}

// Pixels returns Width*Height.
func (r Resolution) Pixels() int { return r.Width * r.Height }

var presets = map[Platform]Resolution{
	PlatformTikTok:    {Width: 1080, Height: 1920},
	PlatformShorts:    {Width: 1080, Height: 1920},
	PlatformInstagram: {Width: 1080, Height: 1350},
}

// ParsePlatform resolves a platform name case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPlatform, nil
	}
	for p := range presets {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid platform: %q (must be one of: TikTok, Instagram, Shorts)", s)
}

// Preset returns the canvas size for the platform.
func (p Platform) Preset() (Resolution, bool) {
	r, ok := presets[p]
	return r, ok
}

// =============================================================================
// Project
// =============================================================================

// Project is one reveal: a base image, a fixed reveal order and a history of
// counter values.
type Project struct {
	ID            string          `toml:"id" json:"id"`
	Name          string          `toml:"name" json:"name"`
	Platform      Platform        `toml:"platform" json:"platform"`
	BaseImage     string          `toml:"base_image" json:"base_image"`
	MaskColor     string          `toml:"mask_color" json:"mask_color"`
	Seed          string          `toml:"seed" json:"seed"`
	PixelsPerUnit float64         `toml:"pixels_per_unit" json:"pixels_per_unit"`
	RevealMode    RevealMode      `toml:"reveal_mode" json:"reveal_mode"`
	Persona       persona.Persona `toml:"persona" json:"persona"`
	Locale        string          `toml:"locale" json:"locale"`
	Resolution    Resolution      `toml:"resolution" json:"resolution"`
	Days          []DayRecord     `toml:"days" json:"days"`

	// dir is the directory of the file the project was loaded from; relative
	// base image paths resolve against it.
	dir string
}

// DayRecord is the counter value observed on one day.
type DayRecord struct {
	ID        string    `toml:"id" json:"id"`
	Day       int       `toml:"day" json:"day"`
	Count     float64   `toml:"count" json:"count"`
	Timestamp time.Time `toml:"timestamp" json:"timestamp"`
}

// New creates a project with a fresh ID and defaults applied. The seed
// defaults to the ID so every new project reveals in its own order.
func New(name string) *Project {
	p := &Project{ID: uuid.NewString(), Name: name}
	p.SetDefaults()
	return p
}

// SetDefaults fills every unset field and normalizes the spelling of enum
// fields. Resolution follows the platform preset. Unrecognized values are
// left for Validate to report.
func (p *Project) SetDefaults() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if pl, err := ParsePlatform(string(p.Platform)); err == nil {
		p.Platform = pl
	}
	if p.MaskColor == "" {
		p.MaskColor = DefaultMaskColor
	}
	if p.Seed == "" {
		p.Seed = p.ID
	}
	if p.PixelsPerUnit == 0 {
		p.PixelsPerUnit = DefaultPixelsPerUnit
	}
	if m, err := ParseRevealMode(string(p.RevealMode)); err == nil {
		p.RevealMode = m
	}
	if pe, err := persona.Parse(string(p.Persona)); err == nil {
		p.Persona = pe
	}
	if p.Locale == "" {
		p.Locale = DefaultLocale
	}
	if p.Resolution.Width == 0 && p.Resolution.Height == 0 {
		if r, ok := p.Platform.Preset(); ok {
			p.Resolution = r
		}
	}
	SortDays(p.Days)
}

// Validate checks every field a renderer depends on.
func (p *Project) Validate() error {
	if _, err := ParsePlatform(string(p.Platform)); err != nil {
		return err
	}
	if err := errors.ValidateDimensions(p.Resolution.Width, p.Resolution.Height); err != nil {
		return err
	}
	if _, err := reveal.ParseHexColor(p.MaskColor); err != nil {
		return err
	}
	if p.PixelsPerUnit <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pixels_per_unit must be positive, got %v", p.PixelsPerUnit)
	}
	if _, err := ParseRevealMode(string(p.RevealMode)); err != nil {
		return err
	}
	if !p.Persona.Valid() {
		return errors.New(errors.ErrCodeInvalidPersona, "unknown persona %q", p.Persona)
	}
	if p.BaseImage != "" {
		if err := errors.ValidatePath(p.BaseImage); err != nil {
			return err
		}
	}
	seen := make(map[int]bool, len(p.Days))
	for _, d := range p.Days {
		if d.Day < 1 {
			return errors.New(errors.ErrCodeInvalidInput, "day must be >= 1, got %d", d.Day)
		}
		if d.Count < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "day %d: count must be non-negative, got %v", d.Day, d.Count)
		}
		if seen[d.Day] {
			return errors.New(errors.ErrCodeInvalidInput, "day %d recorded twice", d.Day)
		}
		seen[d.Day] = true
	}
	return nil
}

// BaseImagePath returns the base image path, resolved against the directory
// the project was loaded from when relative.
func (p *Project) BaseImagePath() string {
	if p.BaseImage == "" || filepath.IsAbs(p.BaseImage) || p.dir == "" {
		return p.BaseImage
	}
	return filepath.Join(p.dir, p.BaseImage)
}

// Dir returns the directory the project was loaded from, if any.
func (p *Project) Dir() string { return p.dir }

// Total returns the number of pixels on the canvas.
func (p *Project) Total() int { return p.Resolution.Pixels() }

// PixelsFor converts a displayed counter value into a reveal target.
func (p *Project) PixelsFor(counter float64) int {
	return reveal.PixelsToReveal(counter, p.PixelsPerUnit)
}

// Display returns the displayed counter for day using the project's mode.
func (p *Project) Display(day int, current float64) float64 {
	return DisplayValue(p.Days, day, current, p.RevealMode)
}

// UnitLabel returns the overlay label for the counter in the project's mode.
func (p *Project) UnitLabel() string {
	if p.RevealMode == ModeDelta {
		return "NEW FOLLOWERS"
	}
	return "TOTAL FOLLOWERS"
}
