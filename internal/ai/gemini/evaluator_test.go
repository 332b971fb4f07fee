package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/applicant-pipeline/internal/cache"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

const sampleResponse = "Summary: Experienced backend engineer.\n" +
	"Score: 8\n" +
	"Issues: None\n" +
	"Follow-Ups:\n- Confirm availability"

func newTestEvaluator(t *testing.T, stub *stubGenerator) *Evaluator {
	t.Helper()

	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	return NewEvaluator(stub, store, zap.NewNop(), 0)
}

func TestEvaluatorParsesAndCaches(t *testing.T) {
	stub := &stubGenerator{response: sampleResponse}
	evaluator := newTestEvaluator(t, stub)

	result, err := evaluator.Evaluate(context.Background(), "APP-001", `{"applicant_id":"APP-001"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Summary != "Experienced backend engineer." {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
	if result.Score != 8 {
		t.Fatalf("expected score 8, got %d", result.Score)
	}
	if !strings.Contains(stub.lastPrompt, `{"applicant_id":"APP-001"}`) {
		t.Fatal("expected payload embedded in prompt")
	}
	if !strings.Contains(stub.lastPrompt, "recruiting analyst") {
		t.Fatal("expected instruction template in prompt")
	}
}

func TestEvaluatorCacheIdempotence(t *testing.T) {
	stub := &stubGenerator{response: sampleResponse}
	evaluator := newTestEvaluator(t, stub)

	payload := `{"applicant_id":"APP-002"}`

	first, err := evaluator.Evaluate(context.Background(), "APP-002", payload)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	second, err := evaluator.Evaluate(context.Background(), "APP-002", payload)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if stub.calls != 1 {
		t.Fatalf("expected a single remote call, got %d", stub.calls)
	}
	if first.Summary != second.Summary || first.Score != second.Score || first.FollowUps != second.FollowUps {
		t.Fatalf("expected identical cached result, got %+v vs %+v", first, second)
	}
}

func TestEvaluatorCacheInvalidationOnChangedPayload(t *testing.T) {
	stub := &stubGenerator{response: sampleResponse}
	evaluator := newTestEvaluator(t, stub)

	if _, err := evaluator.Evaluate(context.Background(), "APP-003", `{"v":1}`); err != nil {
		t.Fatal(err)
	}
	if _, err := evaluator.Evaluate(context.Background(), "APP-003", `{"v":2}`); err != nil {
		t.Fatal(err)
	}

	if stub.calls != 2 {
		t.Fatalf("expected fresh remote call for changed payload, got %d calls", stub.calls)
	}
}

func TestEvaluatorUnparseableResponse(t *testing.T) {
	stub := &stubGenerator{response: "I cannot help with that."}
	evaluator := newTestEvaluator(t, stub)

	result, err := evaluator.Evaluate(context.Background(), "APP-004", `{}`)
	if err != nil {
		t.Fatalf("parse failures must not raise, got %v", err)
	}

	if result.Success {
		t.Fatal("expected success=false")
	}
	if !strings.Contains(result.Error, "Summary") {
		t.Fatalf("expected missing Summary reported, got %q", result.Error)
	}

	// A failed parse must not be cached.
	stub.response = sampleResponse
	if _, err := evaluator.Evaluate(context.Background(), "APP-004", `{}`); err != nil {
		t.Fatal(err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected retry against remote after failed parse, got %d calls", stub.calls)
	}
}

func TestEvaluatorPropagatesRemoteFailure(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exhausted")}
	evaluator := newTestEvaluator(t, stub)

	if _, err := evaluator.Evaluate(context.Background(), "APP-005", `{}`); err == nil {
		t.Fatal("expected remote failure to propagate")
	}
}
