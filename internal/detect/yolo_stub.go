//go:build !gocv
// +build !gocv

package detect

import (
	"context"
	"fmt"

	"github.com/bagait/capcheck/internal/model"
)

// YOLODetector requires OpenCV through gocv, which needs CGo. Builds without
// the gocv tag get this stub so the rest of the tool still compiles.
type YOLODetector struct{}

// NewYOLODetector fails: this build has no detector support.
func NewYOLODetector(cfg model.DetectorConfig) (*YOLODetector, error) {
	return nil, fmt.Errorf("%w: built without gocv support (rebuild with -tags gocv)", model.ErrModelUnavailable)
}

// Backend returns the backend name.
func (d *YOLODetector) Backend() string {
	return "stub"
}

// Detect always fails in a build without the gocv tag.
func (d *YOLODetector) Detect(ctx context.Context, imageData []byte) ([]model.Detection, error) {
	return nil, fmt.Errorf("%w: built without gocv support (rebuild with -tags gocv)", model.ErrModelUnavailable)
}

// Close is a no-op.
func (d *YOLODetector) Close() error {
	return nil
}
