package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"socratic/internal/llm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestInitializeSessionIdempotent(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()
	ctx := context.Background()

	started := time.Now()
	if err := rec.InitializeSession(ctx, "s-1", "u-1", started); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	// A retried first turn must not fail on the existing row.
	if err := rec.InitializeSession(ctx, "s-1", "u-1", started); err != nil {
		t.Fatalf("re-initialize: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("sessions = %d, want 1", n)
	}
}

func TestLogTurnAndReadBack(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()
	ctx := context.Background()

	if err := rec.InitializeSession(ctx, "s-1", "", time.Now()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	err := rec.LogTurn(ctx, TurnRecord{
		SessionID:         "s-1",
		TurnIndex:         1,
		Intent:            "debugging",
		Strategy:          "diagnostic",
		Targeted:          "off-by-one",
		Question:          "What happens at the last index of the loop?",
		LearnerConfidence: 0.42,
		TokensIn:          120,
		TokensOut:         18,
	})
	if err != nil {
		t.Fatalf("log turn: %v", err)
	}

	var strategy, targeted string
	var fallback bool
	err = s.DB().QueryRow(
		"SELECT strategy, targeted, fallback FROM turns WHERE session_id = ? AND turn_index = ?",
		"s-1", 1).Scan(&strategy, &targeted, &fallback)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if strategy != "diagnostic" || targeted != "off-by-one" || fallback {
		t.Fatalf("turn row = (%q, %q, %v)", strategy, targeted, fallback)
	}
}

func TestUpsertSessionMetricsOverwrites(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()
	ctx := context.Background()

	m := SessionMetrics{SessionID: "s-1", Turns: 1, TokensIn: 50, TokensOut: 10}
	if err := rec.UpsertSessionMetrics(ctx, m); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	m.Turns = 5
	m.DirectAnswerPct = 20
	if err := rec.UpsertSessionMetrics(ctx, m); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var turns int
	var directPct float64
	err := s.DB().QueryRow(
		"SELECT turns, direct_answer_pct FROM session_metrics WHERE session_id = ?", "s-1").
		Scan(&turns, &directPct)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if turns != 5 || directPct != 20 {
		t.Fatalf("metrics row = (%d, %v), want (5, 20)", turns, directPct)
	}
}

func TestAppendLLMRequest(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()

	err := rec.AppendLLMRequest(context.Background(), llm.RequestRecord{
		Provider:     "gemini",
		Model:        "gemini-2.5-flash-lite",
		Purpose:      "classify",
		InputTokens:  300,
		OutputTokens: 60,
		LatencyMs:    420,
		Success:      true,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	var provider, purpose string
	var success bool
	err = s.DB().QueryRow("SELECT provider, purpose, success FROM llm_requests").
		Scan(&provider, &purpose, &success)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if provider != "gemini" || purpose != "classify" || !success {
		t.Fatalf("request row = (%q, %q, %v)", provider, purpose, success)
	}
}
