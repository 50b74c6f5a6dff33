package misconception

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestApplyVerdicts_NewTagEntersAtNeutralPlusHalfUp(t *testing.T) {
	l := Ledger{}
	result := l.ApplyVerdicts([]Verdict{{ID: OffByOne, Status: StatusNew, Certainty: 0.9}})

	got, ok := l[OffByOne]
	if !ok {
		t.Fatal("expected off-by-one to be active")
	}
	if !almostEqual(got, 0.43) {
		t.Fatalf("expected 0.43, got %v", got)
	}
	if !almostEqual(result.Deltas[OffByOne], 0.43-NeutralConfidence) {
		t.Fatalf("unexpected delta: %v", result.Deltas[OffByOne])
	}
	if len(result.ResolutionEvents) != 0 {
		t.Fatalf("unexpected resolution events: %v", result.ResolutionEvents)
	}
}

func TestApplyVerdicts_Reinforced(t *testing.T) {
	l := Ledger{OffByOne: 0.43}
	l.ApplyVerdicts([]Verdict{{ID: OffByOne, Status: StatusReinforced}})

	if !almostEqual(l[OffByOne], 0.65) {
		t.Fatalf("expected 0.65, got %v", l[OffByOne])
	}
}

func TestApplyVerdicts_Weakened(t *testing.T) {
	l := Ledger{NullChecks: 0.65}
	l.ApplyVerdicts([]Verdict{{ID: NullChecks, Status: StatusWeakened}})

	if !almostEqual(l[NullChecks], 0.47) {
		t.Fatalf("expected 0.47, got %v", l[NullChecks])
	}
}

func TestApplyVerdicts_AbsentDecaysWithoutResolving(t *testing.T) {
	l := Ledger{OffByOne: 0.65}

	want := []float64{0.585, 0.5265, 0.47385}
	for i, w := range want {
		result := l.ApplyVerdicts([]Verdict{{ID: OffByOne, Status: StatusAbsent}})
		if !almostEqual(l[OffByOne], w) {
			t.Fatalf("decay step %d: expected %v, got %v", i+1, w, l[OffByOne])
		}
		if len(result.ResolutionEvents) != 0 {
			t.Fatalf("decay step %d: unexpected resolution", i+1)
		}
	}
}

func TestApplyVerdicts_BoundaryDecayResolvesInOneStep(t *testing.T) {
	// 0.2 × 0.9 lands exactly on the threshold. The comparison is inclusive,
	// so the tag resolves on the first decay step.
	l := Ledger{ReturnVsPrint: 0.2}
	result := l.ApplyVerdicts([]Verdict{{ID: ReturnVsPrint, Status: StatusAbsent}})

	if _, ok := l[ReturnVsPrint]; ok {
		t.Fatal("expected return-vs-print to be removed")
	}
	if len(result.ResolutionEvents) != 1 || result.ResolutionEvents[0] != ReturnVsPrint {
		t.Fatalf("expected exactly one resolution event, got %v", result.ResolutionEvents)
	}
}

func TestApplyVerdicts_UnmentionedActiveTagsDecay(t *testing.T) {
	l := Ledger{OffByOne: 0.5, NullChecks: 0.19}
	result := l.ApplyVerdicts([]Verdict{{ID: OffByOne, Status: StatusReinforced}})

	if !almostEqual(l[OffByOne], 0.72) {
		t.Fatalf("expected 0.72, got %v", l[OffByOne])
	}
	// 0.19 × 0.9 = 0.171, below threshold → resolved with delta -0.19.
	if _, ok := l[NullChecks]; ok {
		t.Fatal("expected null-checks to resolve via decay")
	}
	if len(result.ResolutionEvents) != 1 || result.ResolutionEvents[0] != NullChecks {
		t.Fatalf("unexpected resolution events: %v", result.ResolutionEvents)
	}
	if !almostEqual(result.Deltas[NullChecks], -0.19) {
		t.Fatalf("expected delta -0.19, got %v", result.Deltas[NullChecks])
	}
}

func TestApplyVerdicts_ValuesStayInRange(t *testing.T) {
	l := Ledger{}
	verdicts := []Verdict{
		{ID: OffByOne, Status: StatusNew},
		{ID: NullChecks, Status: StatusNew},
	}
	l.ApplyVerdicts(verdicts)

	// Hammer the ledger with reinforcement and weakening; everything must
	// remain clamped to [0,1] and at or above the resolution threshold.
	for i := 0; i < 20; i++ {
		l.ApplyVerdicts([]Verdict{
			{ID: OffByOne, Status: StatusReinforced},
			{ID: NullChecks, Status: StatusReinforced},
		})
	}
	for id, conf := range l {
		if conf < 0 || conf > 1 {
			t.Fatalf("%s out of range: %v", id, conf)
		}
	}
	if !almostEqual(l[OffByOne], 1.0) {
		t.Fatalf("expected clamp at 1.0, got %v", l[OffByOne])
	}

	for i := 0; i < 20; i++ {
		result := l.ApplyVerdicts([]Verdict{
			{ID: OffByOne, Status: StatusWeakened},
			{ID: NullChecks, Status: StatusWeakened},
		})
		for id, conf := range l {
			if conf < ResolutionThreshold-1e-9 || conf > 1 {
				t.Fatalf("%s out of range after weaken: %v", id, conf)
			}
			_ = id
		}
		_ = result
	}
	if len(l) != 0 {
		t.Fatalf("expected ledger to empty out, got %v", l)
	}
}

func TestTop_HighestConfidenceWins(t *testing.T) {
	l := Ledger{OffByOne: 0.4, ScopeShadowing: 0.8, NullChecks: 0.6}

	top := l.Top()
	if top == nil {
		t.Fatal("expected a top entry")
	}
	if top.ID != ScopeShadowing || !almostEqual(top.Confidence, 0.8) {
		t.Fatalf("unexpected top: %+v", top)
	}
}

func TestTop_TieBreaksByTaxonomyOrder(t *testing.T) {
	// null-checks is declared before scope-shadowing; equal confidence
	// resolves to the earlier declaration.
	l := Ledger{ScopeShadowing: 0.6, NullChecks: 0.6}

	top := l.Top()
	if top == nil || top.ID != NullChecks {
		t.Fatalf("expected null-checks on tie, got %+v", top)
	}
}

func TestTop_EmptyLedger(t *testing.T) {
	if top := (Ledger{}).Top(); top != nil {
		t.Fatalf("expected nil top for empty ledger, got %+v", top)
	}
}

func TestSnapshot_DeclarationOrder(t *testing.T) {
	l := Ledger{SideEffects: 0.3, OffByOne: 0.5}
	entries := l.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != OffByOne || entries[1].ID != SideEffects {
		t.Fatalf("unexpected order: %v", entries)
	}
}
