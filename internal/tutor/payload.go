package tutor

import (
	"strings"

	"socratic/internal/intent"
	"socratic/internal/llm"
	"socratic/internal/misconception"
)

// HistoryMessage is one prior exchange supplied by the caller.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// TurnRequest is the turn-processing input.
type TurnRequest struct {
	Message   string           `json:"message"`
	History   []HistoryMessage `json:"history,omitempty"`
	Context   string           `json:"context,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	TurnIndex int              `json:"turn_index,omitempty"`
	UserID    string           `json:"user_id,omitempty"`
}

// Validate rejects malformed requests before any state is touched.
func (r *TurnRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &InputError{Field: "message", Reason: "must not be empty"}
	}
	if r.TurnIndex < 0 {
		return &InputError{Field: "turn_index", Reason: "must not be negative"}
	}
	for _, h := range r.History {
		switch h.Role {
		case "user", "assistant":
		default:
			return &InputError{Field: "history", Reason: "role must be user or assistant"}
		}
	}
	return nil
}

// StatePayload is the session state echoed back after each turn.
type StatePayload struct {
	Ledger            []misconception.LedgerEntry `json:"ledger"`
	LearnerConfidence float64                     `json:"learner_confidence"`
	LastQuestion      string                      `json:"last_question,omitempty"`
	Summary           string                      `json:"summary,omitempty"`
	TurnIndex         int                         `json:"turn_index"`
}

// TurnResponse is the turn-processing output.
type TurnResponse struct {
	Response              string                        `json:"response"`
	SessionID             string                        `json:"session_id"`
	TargetedMisconception misconception.ID              `json:"targeted_misconception,omitempty"`
	ClassifierCertainty   float64                       `json:"classifier_certainty"`
	Deltas                map[misconception.ID]float64  `json:"deltas"`
	ResolutionEvents      []misconception.ID            `json:"resolution_events"`
	State                 StatePayload                  `json:"state"`
	TokensIn              int                           `json:"tokens_in"`
	TokensOut             int                           `json:"tokens_out"`
	Intent                intent.Message                `json:"intent"`
	ConfidenceBefore      *float64                      `json:"confidence_before,omitempty"`
	ConfidenceAfter       *float64                      `json:"confidence_after,omitempty"`
	Resolved              bool                          `json:"resolved"`
	AllDoubtsResolved     bool                          `json:"all_doubts_resolved"`
	IsNewSession          bool                          `json:"is_new_session"`
	StudentUnderstood     bool                          `json:"student_understood"`
	LearningSummary       string                        `json:"learning_summary,omitempty"`
	Strategy              string                        `json:"strategy"`
	Fallback              bool                          `json:"fallback"`
}

// EndResult is the final accounting returned by the end operation.
type EndResult struct {
	SessionID        string  `json:"session_id"`
	Turns            int     `json:"turns"`
	DirectAnswerPct  float64 `json:"direct_answer_pct"`
	ReasoningPct     float64 `json:"reasoning_pct"`
	TokensIn         int     `json:"tokens_in"`
	TokensOut        int     `json:"tokens_out"`
	DurationSecs     int64   `json:"duration_secs"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	LearningSummary  string  `json:"learning_summary,omitempty"`
}

// NewDoubtResult reports the session swap performed by new-doubt.
type NewDoubtResult struct {
	PreviousSessionID string `json:"previous_session_id,omitempty"`
	SessionID         string `json:"session_id"`
}

// acknowledgements are the phrasings the tutor prompt mandates when the
// student has worked out the answer.
var acknowledgements = []string{"that's correct", "exactly right", "almost!"}

// understood reports whether the raw model output acknowledges a correct
// or near-correct answer from the student.
func understood(raw string) bool {
	lower := strings.ToLower(raw)
	for _, phrase := range acknowledgements {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// toLLMHistory converts caller-supplied history to provider messages.
func toLLMHistory(history []HistoryMessage) []llm.Message {
	if len(history) == 0 {
		return nil
	}
	msgs := make([]llm.Message, 0, len(history))
	for _, h := range history {
		role := llm.RoleUser
		if h.Role == "assistant" {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Text})
	}
	return msgs
}
