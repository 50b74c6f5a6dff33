package question

import "socratic/internal/misconception"

// fallbacks holds one canonical question per misconception, used when
// generation exhausts its retries without producing a valid question.
var fallbacks = map[misconception.ID]string{
	misconception.OffByOne:               "What happens at the first and last index of the loop?",
	misconception.MutationVsReassignment: "How does the data change after this line compared to before it?",
	misconception.ReturnVsPrint:          "Where does the value go after this function runs?",
	misconception.AsyncVsParallel:        "Which parts actually wait for others to finish here?",
	misconception.NullChecks:             "What if the value is null before this access?",
	misconception.ScopeShadowing:         "Which variable name is actually read at this point?",
	misconception.Statefulness:           "When is the state reset between runs?",
	misconception.SideEffects:            "What else changes when this code executes in this order?",
}

// genericFallback is used when no misconception is targeted.
const genericFallback = "What specific case still seems unclear?"

// Fallback returns the canonical question for the targeted misconception,
// or the generic prompt when targeted is empty or unknown.
func Fallback(targeted misconception.ID) string {
	if q, ok := fallbacks[targeted]; ok {
		return q
	}
	return genericFallback
}
