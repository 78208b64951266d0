// Package capture writes viewport screenshots to disk.
package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// ErrEmpty is returned for an image with no pixels.
var ErrEmpty = errors.New("capture: empty image")

// Save writes img to path as PNG. When width is positive and smaller than the
// image, the image is scaled down to width keeping its aspect ratio.
func Save(img image.Image, path string, width int) error {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ErrEmpty
	}
	if width > 0 && width < b.Dx() {
		height := max(1, b.Dy()*width/b.Dx())
		img = transform.Resize(img, width, height, transform.Linear)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("capture %s: %w", path, err)
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("capture %s: %w", path, err)
	}
	return nil
}
