// Package session owns per-conversation state: the misconception ledger,
// dialogue bookkeeping, and the keyed registry with its concurrency
// contract (turns within one session are serialized; different sessions
// proceed independently).
package session

import (
	"sync"
	"time"

	"socratic/internal/intent"
	"socratic/internal/llm"
	"socratic/internal/misconception"
)

// initialLearnerConfidence seeds a fresh session's engagement estimate.
const initialLearnerConfidence = 0.5

// State is the per-session dialogue state mutated once per turn.
type State struct {
	Ledger            misconception.Ledger
	LearnerConfidence float64
	LastQuestion      string
	Summary           string
	TurnIndex         int
}

// Session is one conversation: its State plus bookkeeping counters.
// Counters are monotonically non-decreasing until the session ends.
type Session struct {
	// mu serializes turns within this session. The store hands out the
	// same *Session to concurrent requests for one id; callers hold the
	// lock for the whole turn.
	mu sync.Mutex

	ID     string
	UserID string

	State State

	StartedAt  time.Time
	LastActive time.Time

	// History is the accumulated conversation, used for summarization
	// and as generation context.
	History []llm.Message

	IntentCounts        map[intent.Message]int
	DirectAnswerSeeking int
	ReasoningTurns      int

	TokensIn  int
	TokensOut int

	// Mirrored is set once the session has been written to the
	// best-effort persistence mirror.
	Mirrored bool
}

func newSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:     id,
		UserID: userID,
		State: State{
			Ledger:            misconception.Ledger{},
			LearnerConfidence: initialLearnerConfidence,
		},
		StartedAt:    now,
		LastActive:   now,
		IntentCounts: make(map[intent.Message]int),
	}
}

// Lock acquires the per-session turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Turns returns the number of completed turns.
func (s *Session) Turns() int {
	return s.State.TurnIndex
}

// RecordIntent updates the per-intent counters for one turn.
func (s *Session) RecordIntent(m intent.Message, reasoning bool) {
	s.IntentCounts[m]++
	if m == intent.MessageSolutionRequest {
		s.DirectAnswerSeeking++
	}
	if reasoning {
		s.ReasoningTurns++
	}
}

// Aggregate is the final accounting returned when a session ends.
type Aggregate struct {
	SessionID       string        `json:"session_id"`
	Turns           int           `json:"turns"`
	DirectAnswerPct float64       `json:"direct_answer_pct"`
	ReasoningPct    float64       `json:"reasoning_pct"`
	TokensIn        int           `json:"tokens_in"`
	TokensOut       int           `json:"tokens_out"`
	Duration        time.Duration `json:"-"`
	DurationSecs    int64         `json:"duration_secs"`
}

// Finalize computes the end-of-session aggregate.
func (s *Session) Finalize(now time.Time) Aggregate {
	agg := Aggregate{
		SessionID: s.ID,
		Turns:     s.State.TurnIndex,
		TokensIn:  s.TokensIn,
		TokensOut: s.TokensOut,
		Duration:  now.Sub(s.StartedAt),
	}
	agg.DurationSecs = int64(agg.Duration.Seconds())
	if agg.Turns > 0 {
		agg.DirectAnswerPct = float64(s.DirectAnswerSeeking) / float64(agg.Turns) * 100
		agg.ReasoningPct = float64(s.ReasoningTurns) / float64(agg.Turns) * 100
	}
	return agg
}
