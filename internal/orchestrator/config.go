package orchestrator

import "time"

// Config tunes the orchestrator's retry budget and generation limits.
type Config struct {
	// MaxAttempts bounds both generation retries (validation rejections
	// and provider errors each consume one) and transient-overload
	// retries on classification.
	MaxAttempts int

	// InitialBackoff is the first overload backoff; each subsequent
	// overload doubles it (1s, 2s, 4s, ...).
	InitialBackoff time.Duration

	// GenMaxTokens caps question generation output. Questions are a single
	// short sentence, so this stays small.
	GenMaxTokens int

	// ClassifyMaxTokens caps the verdict JSON output.
	ClassifyMaxTokens int

	// SummaryMaxTokens caps session summaries.
	SummaryMaxTokens int

	// Temperature for question generation. Classification always runs
	// at 0 for stable verdicts.
	Temperature float64
}

// DefaultConfig returns the production retry budget.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		GenMaxTokens:      80,
		ClassifyMaxTokens: 512,
		SummaryMaxTokens:  256,
		Temperature:       0.4,
	}
}
