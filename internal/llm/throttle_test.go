package llm

import (
	"context"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) ExtractObjects(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	p.calls++
	return &ExtractResponse{Objects: []string{"dog"}}, nil
}

func (p *countingProvider) IsAvailable(ctx context.Context) bool { return true }

func TestThrottle_PassesThrough(t *testing.T) {
	base := &countingProvider{}
	throttled := Throttle(base, 100, 10)

	resp, err := throttled.ExtractObjects(context.Background(), ExtractRequest{Caption: "A dog."})
	if err != nil {
		t.Fatalf("ExtractObjects failed: %v", err)
	}
	if len(resp.Objects) != 1 || resp.Objects[0] != "dog" {
		t.Errorf("Unexpected objects: %v", resp.Objects)
	}
	if base.calls != 1 {
		t.Errorf("Expected 1 call, got %d", base.calls)
	}
	if throttled.Name() != "counting" {
		t.Errorf("Expected wrapped name, got %s", throttled.Name())
	}
}

func TestThrottle_DisabledRate(t *testing.T) {
	base := &countingProvider{}
	if Throttle(base, 0, 0) != Provider(base) {
		t.Error("Expected zero rate to return the provider unchanged")
	}
}

func TestThrottle_CanceledContext(t *testing.T) {
	base := &countingProvider{}
	// Burst 1 at a very slow rate: the second call must wait, and a
	// canceled context should fail it instead of blocking.
	throttled := Throttle(base, 0.001, 1)

	if _, err := throttled.ExtractObjects(context.Background(), ExtractRequest{Caption: "A dog."}); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := throttled.ExtractObjects(ctx, ExtractRequest{Caption: "A dog."}); err == nil {
		t.Fatal("Expected rate limit wait error, got nil")
	}
	if base.calls != 1 {
		t.Errorf("Expected second call to be blocked, got %d calls", base.calls)
	}
}
