// Package strategy selects the dialogue tactic for the next question.
package strategy

import "socratic/internal/intent"

// Strategy is the dialogue tactic used to shape the next question.
type Strategy string

const (
	// Diagnostic probes for where the student's understanding breaks down.
	Diagnostic Strategy = "diagnostic"

	// Narrowing zooms a confident student in on the faulty spot.
	Narrowing Strategy = "narrowing"

	// ConceptualContrast forces a contrastive question about the dominant
	// misconception, regardless of what the student asked.
	ConceptualContrast Strategy = "conceptual-contrast"

	// Reflective turns an explanation request back on the student.
	Reflective Strategy = "reflective"
)

// confidentThreshold gates the narrowing strategy on learner confidence.
const confidentThreshold = 0.55

// dominantThreshold is the per-misconception confidence above which the
// contrastive strategy overrides intent.
const dominantThreshold = 0.75

// Choose evaluates the decision table in order. topConfidence is nil when
// the ledger is empty.
func Choose(coarse intent.Coarse, learnerConfidence float64, topConfidence *float64) Strategy {
	if topConfidence != nil && *topConfidence > dominantThreshold {
		return ConceptualContrast
	}
	if coarse == intent.CoarseDebugging {
		if learnerConfidence > confidentThreshold {
			return Narrowing
		}
		return Diagnostic
	}
	if coarse == intent.CoarseExplanation {
		return Reflective
	}
	return Diagnostic
}
