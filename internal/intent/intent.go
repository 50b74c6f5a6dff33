// Package intent classifies a student's message and tracks a global
// learner-confidence estimate, separate from per-misconception confidence.
package intent

import (
	"regexp"
	"strings"
)

// Coarse is the broad intent driving learner-confidence adjustment and
// strategy selection.
type Coarse string

const (
	CoarseDebugging   Coarse = "debugging"
	CoarseExplanation Coarse = "explanation"
	CoarseUnknown     Coarse = "unknown"
)

// Message is the finer-grained category used for analytics and for
// detecting answer-seeking.
type Message string

const (
	MessageSolutionRequest Message = "solution_request"
	MessageDebugging       Message = "debugging"
	MessageConceptual      Message = "conceptual"
	MessageClarification   Message = "clarification"
)

// Result holds both classifications plus the updated learner confidence.
type Result struct {
	Coarse            Coarse
	Message           Message
	LearnerConfidence float64

	// Reasoning reports whether the student is visibly working through
	// the problem (hedging language or an explanation request), counted
	// in the session's reasoning-turn metric.
	Reasoning bool
}

// Classifier infers intent from a sanitized student message. Implementations
// must be stateless; the prior learner confidence is threaded through the
// call so the heuristic can be swapped without touching session state.
type Classifier interface {
	Classify(message string, priorConfidence float64) Result
}

// Confidence adjustment per signal. Both may apply in one turn; the net
// effect is additive before clamping.
const (
	selfDoubtPenalty = 0.08
	hedgingBonus     = 0.04
)

var (
	solutionRe      = regexp.MustCompile(`give me|just tell|what is the answer|full solution|complete solution|show (me )?the code`)
	debuggingRe     = regexp.MustCompile(`error|exception|stack trace|bug|fails?|fix|debug|crash`)
	clarificationRe = regexp.MustCompile(`meaning|clarif(y|ication)|what do you mean|which one`)
)

// RuleClassifier is the default regex-based heuristic.
type RuleClassifier struct{}

// NewRuleClassifier returns the rule-based classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (c *RuleClassifier) Classify(message string, priorConfidence float64) Result {
	lower := strings.ToLower(message)

	// Coarse intent: a question mark suggests debugging; explanation
	// vocabulary overrides it when both fire.
	coarse := CoarseUnknown
	if strings.Contains(message, "?") {
		coarse = CoarseDebugging
	}
	if strings.Contains(lower, "explain") || strings.Contains(lower, "why") {
		coarse = CoarseExplanation
	}

	confidence := priorConfidence
	if strings.Contains(lower, "not sure") || strings.Contains(lower, "confused") || strings.Contains(lower, "stuck") {
		confidence -= selfDoubtPenalty
	}
	hedging := strings.Contains(lower, "i think") || strings.Contains(lower, "maybe")
	if hedging {
		confidence += hedgingBonus
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Result{
		Coarse:            coarse,
		Message:           classifyMessage(message, lower),
		LearnerConfidence: confidence,
		Reasoning:         hedging || coarse == CoarseExplanation,
	}
}

// classifyMessage picks the analytics category. Solution-seeking is checked
// first and short-circuits; conceptual is the default.
func classifyMessage(message, lower string) Message {
	if solutionRe.MatchString(lower) {
		return MessageSolutionRequest
	}
	if debuggingRe.MatchString(lower) || strings.Contains(message, "?") {
		return MessageDebugging
	}
	if clarificationRe.MatchString(lower) {
		return MessageClarification
	}
	return MessageConceptual
}
