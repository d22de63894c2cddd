package reveal

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/matzehuels/llumina/pkg/errors"
)

// ParseHexColor parses a "#RRGGBB" (or "RRGGBB") string into an opaque color.
// Short forms and alpha channels are rejected rather than guessed.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidColor, "color %q must have 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrap(errors.ErrCodeInvalidColor, err, "color %q is not hexadecimal", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// FormatHexColor renders c as "#rrggbb", ignoring alpha.
func FormatHexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
