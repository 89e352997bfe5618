package llm

import "context"

// Provider defines the interface for language model providers used to
// extract object nouns from caption text.
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractObjects asks the model for the concrete physical objects
	// mentioned in the caption and returns them as raw strings, in the
	// order the model listed them. Normalization is the caller's job.
	ExtractObjects(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for object extraction.
type ExtractRequest struct {
	// Caption is the text to extract objects from
	Caption string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExtractResponse contains the model's output.
type ExtractResponse struct {
	// Objects are the raw object names the model listed
	Objects []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "groq", "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for Groq/OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "groq",
		Model:     "llama-3.1-8b-instant",
		Timeout:   30,
		MaxTokens: 256,
	}
}

// SystemPrompt is the fixed instruction for object extraction. The model is
// told to answer with a bare JSON array, but providers parse defensively
// because some APIs wrap arrays in a root object.
const SystemPrompt = `You are an expert noun extractor. Your task is to identify and list all concrete, physical objects mentioned in the user's text. Respond ONLY with a valid JSON array of lowercase singular strings. For example, for the input 'A black cat and a brown dog are sitting on a red couch.', you would output ["cat", "dog", "couch"].`
