package catsat

import "testing"

func TestConstraintKindString(t *testing.T) {
	cases := map[ConstraintKind]string{
		NormalDisjunction:        "NormalDisjunction",
		PseudoBoolean:            "PseudoBoolean",
		ConditionalPseudoBoolean: "ConditionalPseudoBoolean",
		Custom:                   "Custom",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}

func TestConstraintIsSatisfiedWindow(t *testing.T) {
	c := &Constraint{Kind: PseudoBoolean, MinMinusOne: 1, MaxPlusOne: 4} // min=2, max=3
	for k := 0; k <= 5; k++ {
		want := k == 2 || k == 3
		if got := c.IsSatisfied(k, false); got != want {
			t.Errorf("IsSatisfied(%d) = %v, want %v", k, got, want)
		}
	}
}

func TestConstraintNormalDisjunctionOnlyLowBoundary(t *testing.T) {
	n := 4
	c := &Constraint{Kind: NormalDisjunction, MinMinusOne: 0, MaxPlusOne: n + 1}
	if c.IsSatisfied(0, false) {
		t.Fatalf("0 true disjuncts should not satisfy a normal disjunction")
	}
	for k := 1; k <= n; k++ {
		if !c.IsSatisfied(k, false) {
			t.Errorf("IsSatisfied(%d) = false, want true", k)
		}
	}
}

func TestConstraintConditionalGuard(t *testing.T) {
	c := &Constraint{Kind: ConditionalPseudoBoolean, MinMinusOne: 0, MaxPlusOne: 1} // min=max=1
	if !c.IsSatisfied(0, true) {
		t.Fatalf("guard true should satisfy the constraint regardless of k")
	}
	if !c.IsEnabled(false) {
		t.Fatalf("guard false should enable the constraint")
	}
	if c.IsEnabled(true) {
		t.Fatalf("guard true should disable the constraint")
	}
	if !c.IsSatisfied(1, false) || c.IsSatisfied(0, false) || c.IsSatisfied(2, false) {
		t.Fatalf("guard false should fall back to the min..max window")
	}
}

func TestConstraintThreatDeltaTransitions(t *testing.T) {
	// min=2, max=3 (MinMinusOne=1, MaxPlusOne=4): satisfied at k in {2,3}.
	c := &Constraint{Kind: PseudoBoolean, MinMinusOne: 1, MaxPlusOne: 4}

	if d := c.ThreatDeltaIncreasing(1, false); d != -1 {
		t.Errorf("crossing into the window from below: got %d, want -1", d)
	}
	if d := c.ThreatDeltaIncreasing(3, false); d != 1 {
		t.Errorf("crossing out of the window above: got %d, want 1", d)
	}
	if d := c.ThreatDeltaIncreasing(2, false); d != 0 {
		t.Errorf("staying inside the window: got %d, want 0", d)
	}
	if d := c.ThreatDeltaDecreasing(2, false); d != 1 {
		t.Errorf("crossing out of the window below: got %d, want 1", d)
	}
	if d := c.ThreatDeltaDecreasing(4, false); d != -1 {
		t.Errorf("crossing into the window from above: got %d, want -1", d)
	}
}

func TestComputeHashAndStructuralEquality(t *testing.T) {
	disjuncts := []Literal{1, -2, 3}
	h := computeHash(disjuncts, NormalDisjunction, 1, 3, 0)
	c := &Constraint{Disjuncts: disjuncts, Kind: NormalDisjunction, MinMinusOne: 0, MaxPlusOne: 4, Hash: h}
	if !c.structurallyEqual(NormalDisjunction, 1, 3, 0, disjuncts) {
		t.Fatalf("identical constraint parameters should compare structurally equal")
	}
	if c.structurallyEqual(NormalDisjunction, 1, 3, 0, []Literal{1, -2, 4}) {
		t.Fatalf("a different disjunct should not compare equal")
	}
	if c.structurallyEqual(PseudoBoolean, 1, 3, 0, disjuncts) {
		t.Fatalf("a different kind should not compare equal")
	}
	reordered := []Literal{-2, 1, 3}
	if c.structurallyEqual(NormalDisjunction, 1, 3, 0, reordered) {
		t.Fatalf("disjunct order matters for structural equality, per spec")
	}
}
