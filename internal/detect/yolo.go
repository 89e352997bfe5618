//go:build gocv
// +build gocv

package detect

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/bagait/capcheck/internal/model"
)

// YOLODetector runs a darknet YOLO network through OpenCV's DNN module.
// The network is loaded once at construction and reused for every Detect
// call; Close releases it.
type YOLODetector struct {
	// mu serializes Forward calls: the cv::dnn::Net is not safe for
	// concurrent inference.
	mu sync.Mutex

	net         gocv.Net
	outputNames []string
	confidence  float32
	nms         float32
	inputSize   int
	closed      bool
}

// NewYOLODetector loads the network from the configured weights and cfg
// files. Missing files or an unloadable network fail with
// model.ErrModelUnavailable.
func NewYOLODetector(cfg model.DetectorConfig) (*YOLODetector, error) {
	for _, path := range []string{cfg.WeightsPath, cfg.ConfigPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrModelUnavailable, path, err)
		}
	}

	net := gocv.ReadNet(cfg.WeightsPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to read network from %s", model.ErrModelUnavailable, cfg.WeightsPath)
	}

	var outputNames []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		layer.Close()
		if name != "" && name != "_input" {
			outputNames = append(outputNames, name)
		}
	}
	if len(outputNames) == 0 {
		net.Close()
		return nil, fmt.Errorf("%w: network has no output layers", model.ErrModelUnavailable)
	}

	return &YOLODetector{
		net:         net,
		outputNames: outputNames,
		confidence:  float32(cfg.Confidence),
		nms:         float32(cfg.NMSThreshold),
		inputSize:   cfg.InputSize,
	}, nil
}

// Backend returns the backend name.
func (d *YOLODetector) Backend() string {
	return "gocv/yolo"
}

// Detect runs inference on one image and returns every detection at or
// above the confidence threshold, after non-maximum suppression.
func (d *YOLODetector) Detect(ctx context.Context, imageData []byte) ([]model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil || img.Empty() {
		if !img.Empty() {
			img.Close()
		}
		return nil, fmt.Errorf("%w: failed to decode image", model.ErrImageLoad)
	}
	defer img.Close()

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("%w: detector is closed", model.ErrModelUnavailable)
	}

	d.net.SetInput(blob, "")
	outputs := d.net.ForwardLayers(d.outputNames)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	return d.collectDetections(outputs, img.Cols(), img.Rows()), nil
}

// collectDetections parses the region layer outputs. Each row is
// [cx, cy, w, h, objectness, class scores...] with coordinates relative to
// the input image.
func (d *YOLODetector) collectDetections(outputs []gocv.Mat, imgW, imgH int) []model.Detection {
	var (
		boxes    []image.Rectangle
		scores   []float32
		classIDs []int
	)

	for _, out := range outputs {
		cols := out.Cols()
		if cols <= 5 {
			continue
		}
		for r := 0; r < out.Rows(); r++ {
			objectness := out.GetFloatAt(r, 4)

			bestClass, bestScore := 0, float32(0)
			for c := 5; c < cols; c++ {
				if score := out.GetFloatAt(r, c); score > bestScore {
					bestScore = score
					bestClass = c - 5
				}
			}

			confidence := objectness * bestScore
			if confidence < d.confidence || bestClass >= len(cocoLabels) {
				continue
			}

			cx := out.GetFloatAt(r, 0) * float32(imgW)
			cy := out.GetFloatAt(r, 1) * float32(imgH)
			w := out.GetFloatAt(r, 2) * float32(imgW)
			h := out.GetFloatAt(r, 3) * float32(imgH)

			left := int(cx - w/2)
			top := int(cy - h/2)
			boxes = append(boxes, image.Rect(left, top, left+int(w), top+int(h)))
			scores = append(scores, confidence)
			classIDs = append(classIDs, bestClass)
		}
	}

	if len(boxes) == 0 {
		return nil
	}

	keep := gocv.NMSBoxes(boxes, scores, d.confidence, d.nms)

	detections := make([]model.Detection, 0, len(keep))
	for _, i := range keep {
		box := boxes[i]
		detections = append(detections, model.Detection{
			Label:      cocoLabels[classIDs[i]],
			Confidence: float64(scores[i]),
			X:          box.Min.X,
			Y:          box.Min.Y,
			Width:      box.Dx(),
			Height:     box.Dy(),
		})
	}
	return detections
}

// Close releases the network. Safe to call more than once.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}
