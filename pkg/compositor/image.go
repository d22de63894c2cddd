package compositor

import (
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/matzehuels/llumina/pkg/errors"
)

// LoadImage decodes the image at path, applying its EXIF orientation.
// JPEG, PNG, GIF, BMP, TIFF and WebP are supported.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, statErr, "base image %s", path)
	}
	return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode base image %s", path)
}

// DecodeImage decodes an image from r, applying its EXIF orientation.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode image")
	}
	return img, nil
}
