package gemini

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeCallerResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCaller struct {
	mu      sync.Mutex
	queue   []fakeCallerResponse
	calls   int
	configs []*genai.GenerateContentConfig
}

func (f *fakeCaller) enqueue(text string, err error) {
	resp := &genai.GenerateContentResponse{}
	if err == nil {
		resp = &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
			}},
		}
	}
	f.queue = append(f.queue, fakeCallerResponse{resp: resp, err: err})
}

func (f *fakeCaller) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.configs = append(f.configs, config)
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next.resp, next.err
}

func TestGeneratorRetriesUntilSuccess(t *testing.T) {
	originalSleep := sleep
	var waits []time.Duration
	sleep = func(d time.Duration) { waits = append(waits, d) }
	defer func() { sleep = originalSleep }()

	caller := &fakeCaller{}
	caller.enqueue("", errors.New("boom"))
	caller.enqueue("", errors.New("boom again"))
	caller.enqueue("retry ok", nil)

	g := &Generator{caller: caller, model: "gemini-test", maxRetries: 5, logger: zap.NewNop()}

	output, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if caller.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", caller.calls)
	}

	expected := []time.Duration{10 * time.Second, 20 * time.Second}
	if len(waits) != len(expected) {
		t.Fatalf("expected %d waits, got %d", len(expected), len(waits))
	}
	for i, want := range expected {
		if waits[i] != want {
			t.Fatalf("wait %d: expected %s, got %s", i, want, waits[i])
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = originalSleep }()

	caller := &fakeCaller{}
	for range 5 {
		caller.enqueue("", errors.New("unavailable"))
	}

	g := &Generator{caller: caller, model: "gemini-test", maxRetries: 5, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if caller.calls != 5 {
		t.Fatalf("expected 5 calls, got %d", caller.calls)
	}
}

func TestGeneratorBackoffIsCapped(t *testing.T) {
	originalSleep := sleep
	var waits []time.Duration
	sleep = func(d time.Duration) { waits = append(waits, d) }
	defer func() { sleep = originalSleep }()

	caller := &fakeCaller{}
	for range 7 {
		caller.enqueue("", errors.New("unavailable"))
	}

	g := &Generator{caller: caller, model: "gemini-test", maxRetries: 7, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}

	last := waits[len(waits)-1]
	if last != maxBackoff {
		t.Fatalf("expected final backoff capped at %s, got %s", maxBackoff, last)
	}
}

func TestGeneratorRequestsDeterministicGeneration(t *testing.T) {
	caller := &fakeCaller{}
	caller.enqueue("Summary: fine", nil)

	g := &Generator{caller: caller, model: "gemini-test", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config := caller.configs[0]
	if config == nil {
		t.Fatal("expected generation config to be set")
	}
	if config.MaxOutputTokens != maxOutputTokens {
		t.Fatalf("expected max output tokens %d, got %d", maxOutputTokens, config.MaxOutputTokens)
	}
	if config.Temperature == nil || *config.Temperature != 0 {
		t.Fatalf("expected zero temperature, got %v", config.Temperature)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{caller: &fakeCaller{}, model: "gemini-test", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
