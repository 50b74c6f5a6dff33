package misconception

// Update rule constants. A tag first mentioned by the classifier enters the
// ledger around NeutralConfidence; evidence moves it up or down from there,
// and unmentioned tags fade by Decay each turn until they cross
// ResolutionThreshold and drop out.
const (
	NeutralConfidence   = 0.32
	DeltaUp             = 0.22
	DeltaDown           = 0.18
	Decay               = 0.9
	ResolutionThreshold = 0.18
)

// resolutionEpsilon absorbs float64 noise at the threshold boundary. The
// resolution comparison is inclusive: a confidence landing exactly on the
// threshold (e.g. 0.2 decayed once by 0.9) resolves immediately.
const resolutionEpsilon = 1e-9

// Ledger maps active misconceptions to a confidence score in [0,1].
// Absence of a tag means resolved or never raised. Every stored value is at
// or above ResolutionThreshold.
type Ledger map[ID]float64

// UpdateResult reports what one round of verdicts did to the ledger.
type UpdateResult struct {
	// Deltas holds the signed confidence change per touched tag.
	Deltas map[ID]float64

	// ResolutionEvents lists tags removed from the ledger this turn,
	// in taxonomy declaration order for decayed tags.
	ResolutionEvents []ID
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func resolved(v float64) bool {
	return v < ResolutionThreshold+resolutionEpsilon
}

// ApplyVerdicts mutates the ledger with one turn's verdicts, then decays
// every active tag the verdicts did not mention so unraised concerns fade
// out instead of persisting indefinitely. Verdicts must already be filtered
// against the taxonomy.
func (l Ledger) ApplyVerdicts(verdicts []Verdict) UpdateResult {
	result := UpdateResult{Deltas: make(map[ID]float64)}
	mentioned := make(map[ID]bool, len(verdicts))

	for _, v := range verdicts {
		mentioned[v.ID] = true

		prev, ok := l[v.ID]
		if !ok {
			prev = NeutralConfidence
		}

		var next float64
		switch v.Status {
		case StatusReinforced:
			next = prev + DeltaUp
		case StatusWeakened:
			next = prev - DeltaDown
		case StatusNew:
			next = NeutralConfidence + DeltaUp/2
		case StatusAbsent:
			next = prev * Decay
		default:
			next = prev
		}

		next = clamp(next)
		result.Deltas[v.ID] = next - prev

		if resolved(next) {
			delete(l, v.ID)
			result.ResolutionEvents = append(result.ResolutionEvents, v.ID)
		} else {
			l[v.ID] = next
		}
	}

	// Decay active tags the classifier said nothing about this turn.
	for _, d := range taxonomy {
		if mentioned[d.ID] {
			continue
		}
		prev, ok := l[d.ID]
		if !ok {
			continue
		}
		next := clamp(prev * Decay)
		if resolved(next) {
			delete(l, d.ID)
			result.ResolutionEvents = append(result.ResolutionEvents, d.ID)
			result.Deltas[d.ID] = -prev
		} else {
			l[d.ID] = next
			result.Deltas[d.ID] = next - prev
		}
	}

	return result
}

// TopEntry is the most confident active misconception.
type TopEntry struct {
	ID         ID
	Confidence float64
}

// Top returns the tag with the strictly highest confidence, or nil if the
// ledger is empty. Ties break toward taxonomy declaration order.
func (l Ledger) Top() *TopEntry {
	var top *TopEntry
	for id, conf := range l {
		if top == nil || conf > top.Confidence ||
			(conf == top.Confidence && Order(id) < Order(top.ID)) {
			top = &TopEntry{ID: id, Confidence: conf}
		}
	}
	return top
}

// Snapshot returns ledger entries in taxonomy declaration order, for
// response payloads and persistence.
func (l Ledger) Snapshot() []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(l))
	for _, d := range taxonomy {
		if conf, ok := l[d.ID]; ok {
			entries = append(entries, LedgerEntry{ID: d.ID, Confidence: conf})
		}
	}
	return entries
}

// LedgerEntry is one active misconception with its confidence.
type LedgerEntry struct {
	ID         ID      `json:"id"`
	Confidence float64 `json:"confidence"`
}
