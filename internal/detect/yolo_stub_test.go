//go:build !gocv
// +build !gocv

package detect

import (
	"errors"
	"testing"

	"github.com/bagait/capcheck/internal/model"
)

func TestNewYOLODetector_WithoutGocv(t *testing.T) {
	_, err := NewYOLODetector(model.DefaultConfig().Detector)
	if err == nil {
		t.Fatal("Expected error in a build without the gocv tag, got nil")
	}
	if !errors.Is(err, model.ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable, got %v", err)
	}
}
