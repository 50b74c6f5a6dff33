package question

import (
	"regexp"
	"strings"
)

// DefaultQuestion stands in when the model produced no question at all.
const DefaultQuestion = "What happens when the list is empty?"

// maxWords caps the sanitized question length.
const maxWords = 20

var (
	controlRe  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	emphasisRe = regexp.MustCompile("[`*]")
	spaceRe    = regexp.MustCompile(`\s+`)
)

// SanitizeInput strips control characters and collapses whitespace in a
// student message or editor context before it reaches any prompt.
func SanitizeInput(s string) string {
	s = controlRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// ToSingleQuestion reduces raw model output to one well-formed question:
// markdown emphasis stripped, whitespace collapsed, only the clause ending
// at the first "?" kept, capped at 20 words with a forced trailing "?".
// Output with no "?" at all degrades to DefaultQuestion.
func ToSingleQuestion(raw string) string {
	cleaned := strings.TrimSpace(spaceRe.ReplaceAllString(emphasisRe.ReplaceAllString(raw, ""), " "))

	end := strings.Index(cleaned, "?")
	if end == -1 {
		return DefaultQuestion
	}

	// Keep only the clause that ends at the first question mark.
	pre := cleaned[:end+1]
	boundary := strings.LastIndexAny(pre[:end], ".!\n")
	q := strings.TrimSpace(pre[boundary+1:])

	words := strings.Fields(q)
	if len(words) > maxWords {
		q = strings.Join(words[:maxWords], " ")
	}

	if q != "" && !strings.HasSuffix(q, "?") {
		q += "?"
	}
	if q == "" {
		return DefaultQuestion
	}
	return q
}
