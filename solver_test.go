package catsat

import (
	"errors"
	"testing"
)

// Scenario 1 (spec.md §8): exactly one of three propositions, every
// solve returns a model with exactly one true, and over many solves all
// three values appear.
func TestSolveExactlyOneAmongThree(t *testing.T) {
	p := NewProblem()
	p.SetSeed(1)
	a := p.GetProposition("a")
	b := p.GetProposition("b")
	c := p.GetProposition("c")
	if _, err := p.Unique(a.Literal(), b.Literal(), c.Literal()); err != nil {
		t.Fatalf("Unique: %v", err)
	}

	seen := map[string]int{}
	const trials = 1000
	for i := 0; i < trials; i++ {
		sol, err := p.Solve()
		if err != nil {
			t.Fatalf("trial %d: Solve: %v", i, err)
		}
		count := sol.Count(a.Literal(), b.Literal(), c.Literal())
		if count != 1 {
			t.Fatalf("trial %d: expected exactly one of a,b,c true, got %d", i, count)
		}
		for _, prop := range []*Proposition{a, b, c} {
			if sol.PropositionTrue(prop) {
				seen[prop.Name]++
			}
		}
	}
	for _, name := range []string{"a", "b", "c"} {
		if seen[name] == 0 {
			t.Errorf("%q was never chosen true across %d trials", name, trials)
		}
	}
}

// Scenario 2: a hard-coded fact plus a rule derived from it.
func TestSolveHardFactPlusRule(t *testing.T) {
	p := NewProblem()
	p.SetSeed(2)
	pp := p.GetProposition("p")
	q := p.GetProposition("q")
	if err := p.AssertLiteral(pp.Literal()); err != nil {
		t.Fatalf("AssertLiteral: %v", err)
	}
	if err := p.AssertRule(q.Literal(), pp.Literal()); err != nil {
		t.Fatalf("AssertRule: %v", err)
	}

	for i := 0; i < 20; i++ {
		sol, err := p.Solve()
		if err != nil {
			t.Fatalf("trial %d: Solve: %v", i, err)
		}
		if !sol.PropositionTrue(pp) {
			t.Fatalf("trial %d: p should always be true", i)
		}
		if !sol.PropositionTrue(q) {
			t.Fatalf("trial %d: q should always be true (derived from p via the rule)", i)
		}
	}
}

// Scenario 3: a<=b and b<=a with no base case is non-tight; solving
// must surface the error at compile time rather than run the search.
func TestSolveNonTightProgramSurfacesAtCompile(t *testing.T) {
	p := NewProblem()
	a := p.GetProposition("a")
	b := p.GetProposition("b")
	if err := p.AssertRule(a.Literal(), b.Literal()); err != nil {
		t.Fatalf("AssertRule: %v", err)
	}
	if err := p.AssertRule(b.Literal(), a.Literal()); err != nil {
		t.Fatalf("AssertRule: %v", err)
	}
	_, err := p.Solve()
	var nonTight *NonTightProgramError
	if !errors.As(err, &nonTight) {
		t.Fatalf("expected NonTightProgramError, got %v", err)
	}
}

// Scenario 4: a cardinality window over five propositions.
func TestSolveCardinalityWindow(t *testing.T) {
	p := NewProblem()
	p.SetSeed(4)
	var lits []Literal
	for i := 1; i <= 5; i++ {
		lits = append(lits, p.GetPropositionCall("p", i).Literal())
	}
	if _, err := p.Quantify(2, 3, lits); err != nil {
		t.Fatalf("Quantify: %v", err)
	}

	for i := 0; i < 100; i++ {
		sol, err := p.Solve()
		if err != nil {
			t.Fatalf("trial %d: Solve: %v", i, err)
		}
		count := sol.Count(lits...)
		if count < 2 || count > 3 {
			t.Fatalf("trial %d: expected count in {2,3}, got %d", i, count)
		}
	}
}

// Scenario 5: utility maximization with no constraints converges to the
// model that keeps every positive-utility proposition true and every
// negative-utility one false.
func TestHighUtilitySolutionMaximizes(t *testing.T) {
	p := NewProblem()
	p.SetSeed(5)
	p1 := p.GetProposition("p1")
	p2 := p.GetProposition("p2")
	p3 := p.GetProposition("p3")
	p1.Utility = 1
	p2.Utility = 2
	p3.Utility = -5

	sol, err := p.HighUtilitySolution(1000)
	if err != nil {
		t.Fatalf("HighUtilitySolution: %v", err)
	}
	if sol.TotalUtility != 3 {
		t.Fatalf("expected total utility 3, got %v", sol.TotalUtility)
	}
	if !sol.PropositionTrue(p1) || !sol.PropositionTrue(p2) || sol.PropositionTrue(p3) {
		t.Fatalf("expected {p1=true, p2=true, p3=false}, got p1=%v p2=%v p3=%v",
			sol.PropositionTrue(p1), sol.PropositionTrue(p2), sol.PropositionTrue(p3))
	}
}

// Scenario 6: a guard literal disables a Unique constraint when true.
func TestConditionalPseudoBoolean(t *testing.T) {
	p := NewProblem()
	p.SetSeed(6)
	g := p.GetProposition("g")
	a := p.GetProposition("a")
	b := p.GetProposition("b")
	if _, err := p.QuantifyConditional(g.Literal(), 1, 1, []Literal{a.Literal(), b.Literal()}); err != nil {
		t.Fatalf("QuantifyConditional: %v", err)
	}

	p.SetInitializationHook(func(pr *Problem) { pr.SetPreinitialized(g, true) })
	sawBothTrue := false
	for i := 0; i < 200 && !sawBothTrue; i++ {
		sol, err := p.Solve()
		if err != nil {
			t.Fatalf("guard-true trial %d: Solve: %v", i, err)
		}
		if sol.PropositionTrue(a) && sol.PropositionTrue(b) {
			sawBothTrue = true
		}
	}
	if !sawBothTrue {
		t.Fatalf("with g=true the Unique(a,b) constraint should be disabled, so a=b=true should be reachable")
	}

	p.SetInitializationHook(func(pr *Problem) { pr.SetPreinitialized(g, false) })
	for i := 0; i < 50; i++ {
		sol, err := p.Solve()
		if err != nil {
			t.Fatalf("guard-false trial %d: Solve: %v", i, err)
		}
		if sol.Count(a.Literal(), b.Literal()) != 1 {
			t.Fatalf("guard-false trial %d: expected exactly one of a,b true", i)
		}
	}
}

func TestSolveTrivialProblem(t *testing.T) {
	p := NewProblem()
	p.GetProposition("lonely")
	sol, err := p.SolveWithTimeout(1)
	if err != nil {
		t.Fatalf("a problem with one proposition and no constraints should solve trivially: %v", err)
	}
	if sol == nil {
		t.Fatalf("expected a non-nil solution")
	}
}
