package misconception

// VerdictStatus is the classifier's judgment about one misconception
// for a single turn.
type VerdictStatus string

const (
	StatusReinforced VerdictStatus = "reinforced"
	StatusWeakened   VerdictStatus = "weakened"
	StatusNew        VerdictStatus = "new"
	StatusAbsent     VerdictStatus = "absent"
)

// Verdict is one per-turn judgment from the external classifier.
type Verdict struct {
	ID        ID            `json:"id"`
	Status    VerdictStatus `json:"status"`
	Certainty float64       `json:"certainty"`
	Rationale string        `json:"rationale,omitempty"`
}

// validStatus reports whether s is one of the four recognized statuses.
func validStatus(s VerdictStatus) bool {
	switch s {
	case StatusReinforced, StatusWeakened, StatusNew, StatusAbsent:
		return true
	}
	return false
}

// FilterVerdicts drops verdicts whose tag is outside the taxonomy or whose
// status is not one of the four recognized values. Malformed classifier
// output is discarded silently rather than surfaced as an error.
func FilterVerdicts(verdicts []Verdict) []Verdict {
	out := make([]Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if !Known(v.ID) || !validStatus(v.Status) {
			continue
		}
		out = append(out, v)
	}
	return out
}
