package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat-completion APIs. Groq exposes the same wire format, so both the
// "openai" and "groq" providers share this implementation.
type OpenAIProvider struct {
	name   string
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a provider for the OpenAI API.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	return newCompatibleProvider("openai", "", config)
}

// NewGroqProvider creates a provider for Groq's OpenAI-compatible API.
func NewGroqProvider(config Config) (*OpenAIProvider, error) {
	return newCompatibleProvider("groq", GroqBaseURL, config)
}

func newCompatibleProvider(name, defaultBaseURL string, config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	switch {
	case config.BaseURL != "":
		clientConfig.BaseURL = config.BaseURL
	case defaultBaseURL != "":
		clientConfig.BaseURL = defaultBaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: newProxyFunc(config.HTTPProxy, config.HTTPSProxy),
		},
	}

	return &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Lightweight API call: list models
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s API check failed: %v\n", p.name, err)
		return false
	}
	return true
}

// ExtractObjects asks the chat model for the objects mentioned in the caption.
func (p *OpenAIProvider) ExtractObjects(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		return nil, fmt.Errorf("%s model must be specified", p.name)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 256
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Caption,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0, // Deterministic extraction
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	objects, err := parseObjectList(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", p.name, err)
	}

	return &ExtractResponse{
		Objects:    objects,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
