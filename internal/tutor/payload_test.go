package tutor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     TurnRequest
		wantErr string
	}{
		{"valid minimal", TurnRequest{Message: "why?"}, ""},
		{"valid with history", TurnRequest{
			Message: "still failing?",
			History: []HistoryMessage{{Role: "user", Text: "it broke"}, {Role: "assistant", Text: "Where?"}},
		}, ""},
		{"empty message", TurnRequest{Message: ""}, "invalid message"},
		{"whitespace message", TurnRequest{Message: " \t "}, "invalid message"},
		{"negative turn index", TurnRequest{Message: "hi?", TurnIndex: -1}, "invalid turn_index"},
		{"bad history role", TurnRequest{
			Message: "hi?",
			History: []HistoryMessage{{Role: "system", Text: "x"}},
		}, "invalid history"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var inputErr *InputError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
}

func TestTurnResponseJSONShape(t *testing.T) {
	resp := TurnResponse{
		Response:  "What happens at the boundary?",
		SessionID: "s-1",
		State:     StatePayload{TurnIndex: 1},
	}
	b, err := json.Marshal(resp)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	for _, key := range []string{
		"response", "session_id", "classifier_certainty", "deltas",
		"resolution_events", "state", "tokens_in", "tokens_out", "intent",
		"resolved", "all_doubts_resolved", "is_new_session", "student_understood",
	} {
		assert.Contains(t, m, key)
	}
	// Optional fields stay off the wire when unset.
	assert.NotContains(t, m, "targeted_misconception")
	assert.NotContains(t, m, "confidence_before")
	assert.NotContains(t, m, "learning_summary")
}
