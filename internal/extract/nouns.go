package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bagait/capcheck/internal/llm"
	"github.com/bagait/capcheck/internal/model"
)

// NounExtractor turns caption text into a normalized set of concrete object
// nouns using a language model provider.
type NounExtractor struct {
	provider  llm.Provider
	modelName string
	maxTokens int
}

// NewNounExtractor creates a new extractor backed by the given provider.
func NewNounExtractor(provider llm.Provider, modelName string, maxTokens int) *NounExtractor {
	return &NounExtractor{
		provider:  provider,
		modelName: modelName,
		maxTokens: maxTokens,
	}
}

// Extract returns the object nouns mentioned in the caption: lowercase,
// trimmed, deduplicated, in first-seen order. An empty or whitespace-only
// caption yields an empty set without any network call.
func (e *NounExtractor) Extract(ctx context.Context, caption string) ([]string, model.ExtractorMeta, error) {
	meta := model.ExtractorMeta{Provider: e.provider.Name(), Model: e.modelName}

	if strings.TrimSpace(caption) == "" {
		return []string{}, meta, nil
	}

	resp, err := e.provider.ExtractObjects(ctx, llm.ExtractRequest{
		Caption:   caption,
		Model:     e.modelName,
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %w", classify(err), err)
	}

	meta.Model = resp.Model
	meta.TokensUsed = resp.TokensUsed

	return Normalize(resp.Objects), meta, nil
}

// classify maps a provider error to a pipeline error kind. Transport-level
// failures are transient network errors; everything else (bad status,
// unparsable content) is an extraction failure.
func classify(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return model.ErrNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.ErrNetwork
	}
	return model.ErrExtraction
}

// Normalize lowercases and trims tokens, drops empties, and deduplicates
// preserving first-seen order.
func Normalize(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}
