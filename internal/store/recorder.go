package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"socratic/internal/llm"
)

// TurnRecord is one completed tutoring turn as persisted to the mirror.
type TurnRecord struct {
	SessionID         string
	TurnIndex         int
	Intent            string
	Strategy          string
	Targeted          string
	Question          string
	Fallback          bool
	LearnerConfidence float64
	TokensIn          int
	TokensOut         int
}

// SessionMetrics is the per-session rollup, rewritten after every turn
// and finalized when the session ends.
type SessionMetrics struct {
	SessionID       string
	Turns           int
	DirectAnswerPct float64
	ReasoningPct    float64
	TokensIn        int
	TokensOut       int
	DurationSecs    int64
}

// Recorder receives session activity. All writes are best-effort;
// callers log failures and continue.
type Recorder interface {
	llm.RequestRecorder

	InitializeSession(ctx context.Context, sessionID, userID string, startedAt time.Time) error
	LogTurn(ctx context.Context, rec TurnRecord) error
	UpsertSessionMetrics(ctx context.Context, m SessionMetrics) error
}

// SQLRecorder implements Recorder against the SQLite mirror.
type SQLRecorder struct {
	db *sql.DB
}

func (r *SQLRecorder) InitializeSession(ctx context.Context, sessionID, userID string, startedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, started_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		sessionID, userID, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	return nil
}

func (r *SQLRecorder) LogTurn(ctx context.Context, rec TurnRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, turn_index, intent, strategy, targeted,
			question, fallback, learner_confidence, tokens_in, tokens_out, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, turn_index) DO NOTHING`,
		rec.SessionID, rec.TurnIndex, rec.Intent, rec.Strategy, rec.Targeted,
		rec.Question, rec.Fallback, rec.LearnerConfidence, rec.TokensIn, rec.TokensOut,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

func (r *SQLRecorder) UpsertSessionMetrics(ctx context.Context, m SessionMetrics) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_metrics (session_id, turns, direct_answer_pct,
			reasoning_pct, tokens_in, tokens_out, duration_secs, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
			turns = excluded.turns,
			direct_answer_pct = excluded.direct_answer_pct,
			reasoning_pct = excluded.reasoning_pct,
			tokens_in = excluded.tokens_in,
			tokens_out = excluded.tokens_out,
			duration_secs = excluded.duration_secs,
			updated_at = excluded.updated_at`,
		m.SessionID, m.Turns, m.DirectAnswerPct, m.ReasoningPct,
		m.TokensIn, m.TokensOut, m.DurationSecs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert session metrics: %w", err)
	}
	return nil
}

func (r *SQLRecorder) AppendLLMRequest(ctx context.Context, rec llm.RequestRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_requests (provider, model, purpose, input_tokens,
			output_tokens, latency_ms, success, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Provider, rec.Model, rec.Purpose, rec.InputTokens,
		rec.OutputTokens, rec.LatencyMs, rec.Success, rec.ErrorMessage,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append LLM request: %w", err)
	}
	return nil
}

// NopRecorder discards everything. Used when the mirror is disabled.
type NopRecorder struct{}

func (NopRecorder) InitializeSession(context.Context, string, string, time.Time) error { return nil }
func (NopRecorder) LogTurn(context.Context, TurnRecord) error                          { return nil }
func (NopRecorder) UpsertSessionMetrics(context.Context, SessionMetrics) error         { return nil }
func (NopRecorder) AppendLLMRequest(context.Context, llm.RequestRecord) error          { return nil }
