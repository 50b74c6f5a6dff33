package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestResolveModel(t *testing.T) {
	if got := resolveModel("gemini-flash-lite", geminiModels); got != "gemini-2.5-flash-lite" {
		t.Fatalf("unexpected model: %s", got)
	}
	// Unknown names pass through so direct model IDs work.
	if got := resolveModel("gemini-exp-1206", geminiModels); got != "gemini-exp-1206" {
		t.Fatalf("unexpected model: %s", got)
	}
}

func TestValidateResponse(t *testing.T) {
	schema := &Schema{
		Name: "test-verdict",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"certainty": map[string]any{"type": "number"},
			},
			"required": []any{"certainty"},
		},
	}

	if err := validateResponse(schema, json.RawMessage(`{"certainty":0.5}`)); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := validateResponse(schema, json.RawMessage(`{"wrong":true}`))
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}

	err = validateResponse(schema, json.RawMessage(`not json`))
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse for malformed JSON, got %v", err)
	}

	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Fatalf("nil schema must pass, got %v", err)
	}
}

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`first`)},
		MockResponse{Err: &ErrOverloaded{Err: errors.New("busy")}},
	)

	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil || string(resp.Content) != "first" {
		t.Fatalf("unexpected first response: %v %v", resp, err)
	}

	_, err = mock.Generate(context.Background(), Request{})
	if !IsOverloaded(err) {
		t.Fatalf("expected overload error, got %v", err)
	}

	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestCheckTruncation(t *testing.T) {
	if err := checkTruncation("end", json.RawMessage(`"ok"`)); err != nil {
		t.Fatalf("clean stop should not error: %v", err)
	}

	err := checkTruncation("max_tokens", json.RawMessage(`{"partial":`))
	if err == nil {
		t.Fatal("expected truncation error")
	}
	var truncated *ErrMaxTokensExceeded
	if !errors.As(err, &truncated) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T", err)
	}
	if string(truncated.Content) != `{"partial":` {
		t.Fatalf("truncated content not preserved: %s", truncated.Content)
	}
}

func TestIsOverloaded_WrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &ErrOverloaded{Err: errors.New("503")})
	if !IsOverloaded(wrapped) {
		t.Fatal("expected wrapped overload to be detected")
	}
	if IsOverloaded(errors.New("plain")) {
		t.Fatal("plain error is not overload")
	}
}

func TestEstimateCost(t *testing.T) {
	got := EstimateCost("gemini-2.5-flash-lite", 1_000_000, 1_000_000)
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if EstimateCost("unknown-model", 100, 100) != 0 {
		t.Fatalf("unknown model should cost 0")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing gemini key")
	}
	cfg.Gemini.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Provider = "nope"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	cfg.Provider = "mock"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mock needs no key: %v", err)
	}
}
