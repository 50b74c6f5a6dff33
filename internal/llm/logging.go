package llm

import (
	"context"
	"log/slog"
	"time"
)

// RequestRecord captures one model call for the best-effort request log.
type RequestRecord struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RequestRecorder receives request records. Implementations must treat
// writes as best-effort; failures are logged and never propagated.
type RequestRecorder interface {
	AppendLLMRequest(ctx context.Context, rec RequestRecord) error
}

// LoggingProvider is a decorator that records every model call.
type LoggingProvider struct {
	inner    Provider
	name     string
	recorder RequestRecorder
}

// WithLogging wraps a Provider with request recording. name labels the
// records with the provider backend ("gemini", "anthropic", ...).
func WithLogging(p Provider, name string, recorder RequestRecorder) Provider {
	return &LoggingProvider{inner: p, name: name, recorder: recorder}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	rec := RequestRecord{
		Provider:  l.name,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}

	if resp != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		rec.Model = resp.Model
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}

	// Record the call but never fail the request over a logging error.
	if logErr := l.recorder.AppendLLMRequest(ctx, rec); logErr != nil {
		slog.Warn("failed to record model request", "error", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
