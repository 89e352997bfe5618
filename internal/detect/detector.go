package detect

import (
	"context"
	"sort"
	"strings"

	"github.com/bagait/capcheck/internal/model"
)

// Detector runs object detection over raw image bytes and returns every
// detection at or above the configured confidence threshold.
//
// A Detector owns its model handle: construction loads the weights once,
// Close releases them. The handle is treated as immutable after load.
type Detector interface {
	// Detect runs inference on one image
	Detect(ctx context.Context, imageData []byte) ([]model.Detection, error)

	// Backend returns a short name for the detection backend
	Backend() string

	// Close releases the model handle
	Close() error
}

// LabelSet collapses detections to a sorted set of lowercase class labels.
// Multiple boxes of the same class contribute one entry.
func LabelSet(detections []model.Detection) []string {
	seen := make(map[string]bool, len(detections))
	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		label := strings.ToLower(strings.TrimSpace(d.Label))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
