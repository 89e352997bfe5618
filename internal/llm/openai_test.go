package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "llama-3.1-8b-instant",
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: openai.Usage{
			TotalTokens: 42,
		},
	}
}

func TestGroqProvider_ExtractObjects_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "Two dogs and a cat outside." {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(chatResponse(`["dog", "cat"]`))
	}))
	defer server.Close()

	config := Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "llama-3.1-8b-instant",
		Timeout: 5,
	}
	provider, err := NewGroqProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.ExtractObjects(context.Background(), ExtractRequest{
		Caption: "Two dogs and a cat outside.",
	})
	if err != nil {
		t.Fatalf("ExtractObjects failed: %v", err)
	}

	if len(resp.Objects) != 2 || resp.Objects[0] != "dog" || resp.Objects[1] != "cat" {
		t.Errorf("Unexpected objects: %v", resp.Objects)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.TokensUsed)
	}
}

func TestGroqProvider_ExtractObjects_WrappedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse(`{"objects": ["dog"]}`))
	}))
	defer server.Close()

	provider, err := NewGroqProvider(Config{APIKey: "test-key", BaseURL: server.URL, Model: "m", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.ExtractObjects(context.Background(), ExtractRequest{Caption: "A dog."})
	if err != nil {
		t.Fatalf("ExtractObjects failed: %v", err)
	}
	if len(resp.Objects) != 1 || resp.Objects[0] != "dog" {
		t.Errorf("Unexpected objects: %v", resp.Objects)
	}
}

func TestGroqProvider_ExtractObjects_UnparsableContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse(`The objects are: dog and cat.`))
	}))
	defer server.Close()

	provider, err := NewGroqProvider(Config{APIKey: "test-key", BaseURL: server.URL, Model: "m", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.ExtractObjects(context.Background(), ExtractRequest{Caption: "A dog."}); err == nil {
		t.Fatal("Expected error for unparsable content, got nil")
	}
}

func TestGroqProvider_ExtractObjects_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewGroqProvider(Config{APIKey: "test-key", BaseURL: server.URL, Model: "m", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.ExtractObjects(context.Background(), ExtractRequest{Caption: "A dog."}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestGroqProvider_ExtractObjects_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(chatResponse(`[]`))
	}))
	defer server.Close()

	provider, err := NewGroqProvider(Config{APIKey: "test-key", BaseURL: server.URL, Model: "m", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.ExtractObjects(ctx, ExtractRequest{Caption: "A dog."}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestNewGroqProvider_MissingKey(t *testing.T) {
	if _, err := NewGroqProvider(Config{}); err == nil {
		t.Fatal("Expected error for missing API key, got nil")
	}
}

func TestOpenAIProvider_Name(t *testing.T) {
	groq, err := NewGroqProvider(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if groq.Name() != "groq" {
		t.Errorf("Expected groq, got %s", groq.Name())
	}

	oai, err := NewOpenAIProvider(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if oai.Name() != "openai" {
		t.Errorf("Expected openai, got %s", oai.Name())
	}
}
