package question

import (
	"strings"
	"testing"
)

func TestHardValidate_ShapeRules(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		wantRule  string // "" means valid
	}{
		{"clean question passes", "What happens at the last index?", ""},
		{"two question marks", "What is x? And what is y?", "multiple-questions"},
		{"fenced code block", "What does ```x = 1``` do?", "code"},
		{"the word code", "Can you trace the code here?", "code"},
		{"the word class", "What does the class constructor do?", "code"},
		{"angle bracket tag", "What does <div> render?", "code"},
		{"step phrasing", "Step 1 is to check the input?", "steps"},
		{"first comma", "First, what does the loop do?", "steps"},
		{"too long", strings.Repeat("a", 157) + " ok?", "too-long"},
		{"because", "Is it failing because of the index?", "explanation"},
		{"for example", "What happens, for example, with zero?", "explanation"},
		{"you should", "You should check the bounds?", "explanation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := HardValidate(tt.candidate, "")
			if tt.wantRule == "" {
				if rej != nil {
					t.Fatalf("expected valid, got rejection %+v", rej)
				}
				return
			}
			if rej == nil {
				t.Fatalf("expected rejection rule %q, got valid", tt.wantRule)
			}
			if rej.Rule != tt.wantRule {
				t.Fatalf("expected rule %q, got %q (%s)", tt.wantRule, rej.Rule, rej.Reason)
			}
		})
	}
}

func TestHardValidate_TwoQuestionMarksAlwaysRejected(t *testing.T) {
	if rej := HardValidate("Why? How?", ""); rej == nil || rej.Rule != "multiple-questions" {
		t.Fatalf("expected multiple-questions rejection, got %+v", rej)
	}
}

func TestHardValidate_RepeatDetection(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		previous  string
		repeat    bool
	}{
		{"exact repeat", "What happens at index zero?", "What happens at index zero?", true},
		{"case and punctuation insensitive", "what happens at INDEX zero", "What happens at index zero?", true},
		{"high word overlap", "What happens at index zero here?", "What happens at index zero?", true},
		{"different question", "When is the accumulator reset?", "What happens at index zero?", false},
		{"no previous question", "What happens at index zero?", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := HardValidate(tt.candidate, tt.previous)
			got := rej != nil && rej.Rule == "repeat"
			if got != tt.repeat {
				t.Fatalf("repeat=%v, expected %v (rejection: %+v)", got, tt.repeat, rej)
			}
		})
	}
}
