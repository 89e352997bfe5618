package model

import "time"

// Report is the result of verifying one caption against one image.
// It is recomputed from scratch on every invocation; nothing is persisted
// beyond the optional result cache.
type Report struct {
	Caption   string    `json:"caption"`    // Caption that was verified
	ImagePath string    `json:"image_path"` // Image the caption was checked against
	CreatedAt time.Time `json:"created_at"` // When the verification ran

	Nouns      []string    `json:"nouns"`      // Object nouns extracted from the caption (first-seen order)
	Detections []Detection `json:"detections"` // Raw detections above the confidence threshold
	Labels     []string    `json:"labels"`     // Deduplicated detection labels

	Verified     []string `json:"verified"`     // Nouns confirmed by the detector
	Hallucinated []string `json:"hallucinated"` // Nouns the detector could not confirm

	Extractor ExtractorMeta `json:"extractor"` // Which LLM produced the noun set
	Detector  DetectorMeta  `json:"detector"`  // Which vision backend produced the detections
}

// Detection is a single detector hit above the confidence threshold.
// Only Label and Confidence participate in reconciliation; the box is
// carried along for the JSON report.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// ExtractorMeta records provenance of the noun extraction.
type ExtractorMeta struct {
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	FromCache  bool   `json:"from_cache,omitempty"`
}

// DetectorMeta records provenance of the object detection.
type DetectorMeta struct {
	Backend    string  `json:"backend,omitempty"`
	Confidence float64 `json:"confidence_threshold"`
	FromCache  bool    `json:"from_cache,omitempty"`
}

// Clean reports whether no hallucinations were found.
func (r *Report) Clean() bool {
	return len(r.Hallucinated) == 0
}
