package question

import (
	"strings"
	"testing"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"control characters stripped", "hi\x00 there\x1f!", "hi there!"},
		{"tabs and newlines stripped as control characters", "a\t\tb\n\nc   d", "abc d"},
		{"runs of spaces collapsed", "a   b  c", "a b c"},
		{"trimmed", "  padded  ", "padded"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeInput(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestToSingleQuestion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"clean question unchanged",
			"What happens at the last index?",
			"What happens at the last index?",
		},
		{
			"markdown emphasis stripped",
			"**What** happens at the `last` index?",
			"What happens at the last index?",
		},
		{
			"trailing prose dropped",
			"What happens at the last index? Think about the bounds carefully.",
			"What happens at the last index?",
		},
		{
			"leading sentence dropped",
			"Good progress. What happens at the last index?",
			"What happens at the last index?",
		},
		{
			"no question mark degrades to default",
			"You are doing great, keep going.",
			DefaultQuestion,
		},
		{
			"empty input degrades to default",
			"",
			DefaultQuestion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToSingleQuestion(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestToSingleQuestion_WordCap(t *testing.T) {
	long := strings.Repeat("word ", 30) + "end?"
	got := ToSingleQuestion(long)

	if !strings.HasSuffix(got, "?") {
		t.Fatalf("expected trailing question mark, got %q", got)
	}
	if n := len(strings.Fields(got)); n > 20 {
		t.Fatalf("expected at most 20 words, got %d: %q", n, got)
	}
}

func TestFallback(t *testing.T) {
	if got := Fallback("off-by-one"); got != "What happens at the first and last index of the loop?" {
		t.Fatalf("unexpected fallback: %q", got)
	}
	if got := Fallback(""); got != genericFallback {
		t.Fatalf("expected generic fallback, got %q", got)
	}
	if got := Fallback("unknown-tag"); got != genericFallback {
		t.Fatalf("expected generic fallback for unknown tag, got %q", got)
	}
}
