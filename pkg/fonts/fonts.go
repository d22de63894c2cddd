// Package fonts provides the embedded typefaces used for frame overlays.
//
// The fonts are the Go font family from golang.org/x/image/font/gofont,
// compiled into the binary so rendering never depends on system fonts.
// Parsed fonts are shared and cached after first use; faces are not safe for
// concurrent use, so every caller creates its own with [NewFace].
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family selects one embedded typeface.
type Family int

// Embedded families.
const (
	Regular  Family = iota // labels
	Bold                   // headings
	MonoBold               // numbers that should not jitter while counting
)

func (f Family) String() string {
	switch f {
	case Regular:
		return "Go Regular"
	case Bold:
		return "Go Bold"
	case MonoBold:
		return "Go Mono Bold"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

func (f Family) data() []byte {
	switch f {
	case Bold:
		return gobold.TTF
	case MonoBold:
		return gomonobold.TTF
	}
	return goregular.TTF
}

var (
	parsedMu sync.Mutex
	parsed   = map[Family]*opentype.Font{}
)

// Parsed returns the parsed font for f. The result is cached after first
// computation.
func Parsed(f Family) (*opentype.Font, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()
	if p, ok := parsed[f]; ok {
		return p, nil
	}
	p, err := opentype.Parse(f.data())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f, err)
	}
	parsed[f] = p
	return p, nil
}

// NewFace returns a face of f at size pixels (72 DPI).
func NewFace(f Family, size float64) (font.Face, error) {
	p, err := Parsed(f)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(p, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
