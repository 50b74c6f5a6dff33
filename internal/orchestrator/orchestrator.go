// Package orchestrator wraps the external model's classify, generate, and
// summarize capabilities with the turn's retry budget: exponential backoff
// on transient overload, validator-gated regeneration, and deterministic
// fallback questions when the budget runs out.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"socratic/internal/llm"
	"socratic/internal/misconception"
	"socratic/internal/question"
	"socratic/internal/strategy"
)

// defaultCertainty is reported when the classifier degraded to an empty
// verdict list.
const defaultCertainty = 0.5

// Orchestrator owns all model traffic for a turn.
type Orchestrator struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// New creates an Orchestrator around the given provider.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultConfig().InitialBackoff
	}
	return &Orchestrator{provider: provider, cfg: cfg, logger: logger}
}

// ClassifyInput carries the turn context the classifier sees.
type ClassifyInput struct {
	Message      string
	Context      string
	Summary      string
	LastQuestion string
}

// ClassifyResult holds the filtered verdicts plus accounting.
type ClassifyResult struct {
	Verdicts  []misconception.Verdict
	Certainty float64
	Usage     llm.Usage
}

// verdictsOutput is the raw classifier response before filtering.
type verdictsOutput struct {
	Verdicts []misconception.Verdict `json:"verdicts"`
}

// Classify asks the model which misconceptions this turn's message bears
// on. Transient overload is retried with backoff; any other failure
// propagates, because strategy selection cannot proceed without verdicts.
// Malformed output is not an error: it degrades to an empty verdict list.
func (o *Orchestrator) Classify(ctx context.Context, in ClassifyInput) (*ClassifyResult, error) {
	ctx = llm.WithPurpose(ctx, "classify")

	userMsg, err := buildClassifyPrompt(in)
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		System: classifySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:    VerdictsSchema,
		MaxTokens: o.cfg.ClassifyMaxTokens,
	}

	var usage llm.Usage
	resp, err := o.callWithBackoff(ctx, req, &usage)
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			// The model produced something that is not a verdict list.
			// Treat as "no evidence this turn" rather than failing.
			o.logger.Warn("classifier output malformed, degrading to empty verdicts", "error", err)
			return &ClassifyResult{Certainty: defaultCertainty, Usage: usage}, nil
		}
		return nil, err
	}
	usage.Add(resp.Usage)

	var raw verdictsOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		o.logger.Warn("classifier output not JSON, degrading to empty verdicts", "error", err)
		return &ClassifyResult{Certainty: defaultCertainty, Usage: usage}, nil
	}

	verdicts := misconception.FilterVerdicts(raw.Verdicts)

	certainty := defaultCertainty
	for _, v := range verdicts {
		if v.Certainty > certainty {
			certainty = v.Certainty
		}
	}

	return &ClassifyResult{Verdicts: verdicts, Certainty: certainty, Usage: usage}, nil
}

// GenerateInput carries everything the question generator needs.
type GenerateInput struct {
	Targeted     misconception.ID // empty when no misconception is targeted
	Strategy     strategy.Strategy
	Message      string
	Summary      string
	Context      string
	LastQuestion string
	History      []llm.Message
}

// GenerateResult is the validated question plus accounting.
type GenerateResult struct {
	Question string
	Raw      string // unsanitized model output, for understanding detection
	Fallback bool   // true when the retry budget was exhausted
	Attempts int
	Usage    llm.Usage
}

// Generate produces one validated Socratic question. Each attempt invokes
// the model, sanitizes the output to a single question, and gates it
// through the hard validator against the previous question. Validation
// rejections retry immediately; transient overload backs off 1s, 2s, 4s;
// other provider errors are logged and consume an attempt. An exhausted
// budget returns the deterministic fallback for the targeted tag.
func (o *Orchestrator) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	userMsg, err := buildGeneratePrompt(in)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(in.History)+1)
	messages = append(messages, in.History...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMsg})

	req := llm.Request{
		System:      tutorSystemPrompt,
		Messages:    messages,
		MaxTokens:   o.cfg.GenMaxTokens,
		Temperature: o.cfg.Temperature,
	}

	result := &GenerateResult{}

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		result.Attempts = attempt

		resp, err := o.provider.Generate(ctx, req)
		if err != nil {
			if llm.IsOverloaded(err) && attempt < o.cfg.MaxAttempts {
				wait := o.backoff(attempt)
				o.logger.Info("model overloaded, backing off",
					"attempt", attempt, "wait", wait)
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			o.logger.Error("question generation failed",
				"attempt", attempt, "error", err)
			continue
		}
		result.Usage.Add(resp.Usage)

		raw := resp.Text()
		candidate := question.ToSingleQuestion(raw)

		if rej := question.HardValidate(candidate, in.LastQuestion); rej != nil {
			o.logger.Info("generated question rejected",
				"attempt", attempt, "rule", rej.Rule, "reason", rej.Reason)
			continue
		}

		result.Question = candidate
		result.Raw = raw
		return result, nil
	}

	// Budget exhausted: degrade to the canonical question for the tag.
	result.Question = question.Fallback(in.Targeted)
	result.Fallback = true
	return result, nil
}

// Summarize produces a rolling or end-of-session summary from the
// conversation history. Overload is retried with the same backoff.
func (o *Orchestrator) Summarize(ctx context.Context, history []llm.Message) (string, llm.Usage, error) {
	ctx = llm.WithPurpose(ctx, "summarize")

	b, err := json.Marshal(history)
	if err != nil {
		return "", llm.Usage{}, err
	}

	req := llm.Request{
		System: summarySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "History:\n" + string(b)},
		},
		MaxTokens: o.cfg.SummaryMaxTokens,
	}

	var usage llm.Usage
	resp, err := o.callWithBackoff(ctx, req, &usage)
	if err != nil {
		return "", usage, err
	}
	usage.Add(resp.Usage)

	return resp.Text(), usage, nil
}

// callWithBackoff invokes the provider, retrying transient overload with
// exponential backoff up to the attempt budget. Usage from failed attempts
// accumulates into usage so token accounting survives retries.
func (o *Orchestrator) callWithBackoff(ctx context.Context, req llm.Request, usage *llm.Usage) (*llm.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		resp, err := o.provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !llm.IsOverloaded(err) || attempt == o.cfg.MaxAttempts {
			return nil, err
		}

		wait := o.backoff(attempt)
		o.logger.Info("model overloaded, backing off", "attempt", attempt, "wait", wait)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// backoff returns 2^(attempt-1) times the initial backoff.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	return o.cfg.InitialBackoff << (attempt - 1)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
