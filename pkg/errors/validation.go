package errors

import (
	"strings"
	"unicode"
)

// MaxPixels bounds width*height so the permutation (4 bytes per pixel) and
// mask (4 bytes per pixel) stay allocatable. 8K UHD is 33.2M pixels.
const MaxPixels = 7680 * 4320

// ValidateDimensions checks that a canvas size is usable by the reveal engine.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidDimensions, "width and height must be positive (got %dx%d)", width, height)
	}
	if int64(width)*int64(height) > MaxPixels {
		return New(ErrCodeInvalidDimensions, "canvas %dx%d exceeds %d pixels", width, height, MaxPixels)
	}
	return nil
}

// ValidatePath validates a relative file path taken from a project file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
