package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for result caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ExtractionKey derives the cache key for a noun extraction result. The key
// covers provider and model so switching either never serves stale nouns.
func ExtractionKey(provider, modelName, caption string) string {
	return "capcheck:v1:nouns:" + digest(provider+"\x00"+modelName+"\x00"+caption)
}

// DetectionKey derives the cache key for a detection result. The key covers
// the image bytes and the confidence threshold.
func DetectionKey(imageData []byte, confidence float64) string {
	sum := sha256.Sum256(imageData)
	return fmt.Sprintf("capcheck:v1:dets:%s:%.3f", hex.EncodeToString(sum[:]), confidence)
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
