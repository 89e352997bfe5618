package imageio

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"

	"github.com/disintegration/imaging"

	"github.com/bagait/capcheck/internal/model"
)

// MaxSide caps the longest image side handed to the detector. Larger images
// are downscaled first; detection quality is unaffected at network input
// resolution and decode cost drops.
const MaxSide = 1280

// Load reads and validates an image file, returning encoded bytes ready for
// the detector. A missing, unreadable, or undecodable file fails with
// model.ErrImageLoad.
func Load(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrImageLoad, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", model.ErrImageLoad, path)
	}

	// Decode up front so a corrupt or unsupported file fails here, before
	// any model runs. AutoOrientation honors EXIF rotation.
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrImageLoad, path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= MaxSide && bounds.Dy() <= MaxSide {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrImageLoad, path, err)
		}
		return data, nil
	}

	resized := imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("%w: re-encode %s: %v", model.ErrImageLoad, path, err)
	}
	return buf.Bytes(), nil
}
