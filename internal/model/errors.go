package model

import "errors"

// Error kinds for the verification pipeline. Stage code wraps these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with errors.Is
// while still seeing the full context in the message.
var (
	// ErrConfiguration indicates a missing or invalid credential/setting,
	// detected before any network call is attempted.
	ErrConfiguration = errors.New("configuration error")

	// ErrExtraction indicates the language model call failed or returned
	// content that could not be parsed as a list of object nouns.
	ErrExtraction = errors.New("noun extraction failed")

	// ErrImageLoad indicates the input image is missing, unreadable, or not
	// a decodable raster format.
	ErrImageLoad = errors.New("image load failed")

	// ErrModelUnavailable indicates the object detector could not be
	// initialized (missing weights, or a build without detector support).
	ErrModelUnavailable = errors.New("detection model unavailable")

	// ErrNetwork indicates a transient connectivity failure on an outbound
	// call (LLM request or asset download).
	ErrNetwork = errors.New("network failure")
)
