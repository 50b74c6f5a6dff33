// Package question enforces the shape contract on generated questions:
// exactly one short question, no code, no steps, no explanation, and not a
// rehash of the previous question.
package question

import (
	"regexp"
	"strings"
)

// MaxLength is the hard character cap on a candidate question.
const MaxLength = 160

// similarityLimit is the token-overlap ratio above which a candidate is
// considered a repeat of the previous question.
const similarityLimit = 0.8

// Rejection explains why a candidate failed validation. It is a retry
// trigger inside the generation loop, not an error surfaced to callers.
type Rejection struct {
	Rule   string
	Reason string
}

var (
	codeRe        = regexp.MustCompile("(?i)```|\\bcode\\b|\\bclass\\b|<[^>]+>")
	stepsRe       = regexp.MustCompile(`(?i)step\s+\d|first,|second,|third,`)
	explanationRe = regexp.MustCompile(`(?i)because|for example|you should`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// HardValidate checks a candidate question against the shape rules and its
// similarity to the previous question. Returns nil when the candidate passes.
func HardValidate(candidate, previous string) *Rejection {
	if strings.Count(candidate, "?") > 1 {
		return &Rejection{Rule: "multiple-questions", Reason: "contains more than one question"}
	}
	if codeRe.MatchString(candidate) {
		return &Rejection{Rule: "code", Reason: "contains code or code-like markers"}
	}
	if stepsRe.MatchString(candidate) {
		return &Rejection{Rule: "steps", Reason: "contains enumerated steps"}
	}
	if len(candidate) > MaxLength {
		return &Rejection{Rule: "too-long", Reason: "exceeds 160 characters"}
	}
	if explanationRe.MatchString(candidate) {
		return &Rejection{Rule: "explanation", Reason: "contains explanatory phrasing"}
	}
	if previous != "" && tooSimilar(candidate, previous) {
		return &Rejection{Rule: "repeat", Reason: "too similar to previous question"}
	}
	return nil
}

// tooSimilar reports whether the normalized candidate matches the previous
// question exactly or shares more than 80% of its word set with it.
func tooSimilar(candidate, previous string) bool {
	cur := normalize(candidate)
	prev := normalize(previous)

	if cur == prev {
		return true
	}

	curWords := wordSet(cur)
	prevWords := wordSet(prev)
	if len(curWords) == 0 || len(prevWords) == 0 {
		return false
	}

	shared := 0
	for w := range curWords {
		if prevWords[w] {
			shared++
		}
	}

	larger := len(curWords)
	if len(prevWords) > larger {
		larger = len(prevWords)
	}
	return float64(shared)/float64(larger) > similarityLimit
}

func normalize(s string) string {
	return strings.TrimSpace(nonAlnumRe.ReplaceAllString(strings.ToLower(s), ""))
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range whitespaceRe.Split(s, -1) {
		if w != "" {
			set[w] = true
		}
	}
	return set
}
