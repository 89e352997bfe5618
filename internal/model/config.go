package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete tool configuration.
// Hierarchy (highest to lowest priority): CLI flags, CAPCHECK_* environment
// variables, ~/.capcheck/config.yaml, defaults.
type Config struct {
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Detector    DetectorConfig    `yaml:"detector" json:"detector"`
	Assets      AssetsConfig      `yaml:"assets" json:"assets"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// LLMConfig configures the language model used for noun extraction.
type LLMConfig struct {
	// Provider name: "groq" (default), "openai", "ollama"
	Provider string `yaml:"provider" json:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model" json:"model"`

	// APIKey for Groq/OpenAI (usually supplied via environment)
	APIKey string `yaml:"-" json:"-"`

	// BaseURL overrides the provider endpoint (e.g., local Ollama)
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// Timeout for API requests, in seconds
	Timeout int `yaml:"timeout" json:"timeout"`

	// MaxTokens limits the response length
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// Proxy settings (empty means honor HTTP_PROXY/HTTPS_PROXY env vars)
	HTTPProxy  string `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
}

// DetectorConfig configures the local object detector.
type DetectorConfig struct {
	// WeightsPath and ConfigPath locate the darknet YOLO model files.
	// Both are fetched into the assets directory on first run if absent.
	WeightsPath string `yaml:"weights_path" json:"weights_path"`
	ConfigPath  string `yaml:"config_path" json:"config_path"`

	// Confidence is the minimum detection score. Detections below it are
	// discarded before reconciliation.
	Confidence float64 `yaml:"confidence" json:"confidence"`

	// NMSThreshold controls non-maximum suppression of overlapping boxes.
	NMSThreshold float64 `yaml:"nms_threshold" json:"nms_threshold"`

	// InputSize is the square network input resolution in pixels.
	InputSize int `yaml:"input_size" json:"input_size"`
}

// AssetsConfig configures first-run asset downloads.
type AssetsConfig struct {
	Dir            string `yaml:"dir" json:"dir"`
	SampleImageURL string `yaml:"sample_image_url" json:"sample_image_url"`
	WeightsURL     string `yaml:"weights_url" json:"weights_url"`
	ConfigURL      string `yaml:"config_url" json:"config_url"`

	// MaxBytes caps a single download
	MaxBytes int64 `yaml:"max_bytes" json:"max_bytes"`

	// Timeout for a single download
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// CacheConfig configures result caching.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig configures batch processing.
type ConcurrencyConfig struct {
	// Workers is the number of concurrent verifications in batch mode
	Workers int `yaml:"workers" json:"workers"`

	// LLMRequestsPerSecond rate-limits noun extraction calls across workers
	LLMRequestsPerSecond float64 `yaml:"llm_requests_per_second" json:"llm_requests_per_second"`

	// LLMBurst is the rate limiter burst size
	LLMBurst int `yaml:"llm_burst" json:"llm_burst"`
}

// OutputConfig configures report rendering.
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose" json:"verbose"`
	JSONPath string `yaml:"json_path,omitempty" json:"json_path,omitempty"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "groq",
			Model:     "llama-3.1-8b-instant",
			Timeout:   30,
			MaxTokens: 256,
		},
		Detector: DetectorConfig{
			WeightsPath:  filepath.Join("assets", "yolov4-tiny.weights"),
			ConfigPath:   filepath.Join("assets", "yolov4-tiny.cfg"),
			Confidence:   0.25,
			NMSThreshold: 0.4,
			InputSize:    416,
		},
		Assets: AssetsConfig{
			Dir:            "assets",
			SampleImageURL: "https://images.pexels.com/photos/1108099/pexels-photo-1108099.jpeg",
			WeightsURL:     "https://github.com/AlexeyAB/darknet/releases/download/darknet_yolo_v4_pre/yolov4-tiny.weights",
			ConfigURL:      "https://raw.githubusercontent.com/AlexeyAB/darknet/master/cfg/yolov4-tiny.cfg",
			MaxBytes:       50_000_000,
			Timeout:        2 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:              4,
			LLMRequestsPerSecond: 2,
			LLMBurst:             4,
		},
		Output: OutputConfig{},
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".capcheck", "cache")
	}
	return filepath.Join(home, ".capcheck", "cache")
}
