package catsat

import (
	"errors"
	"testing"
)

func TestOptimizeForcesLastDisjunct(t *testing.T) {
	p := NewProblem()
	a := p.GetProposition("a")
	b := p.GetProposition("b")
	if _, err := p.Exists(a.Literal(), b.Literal()); err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if err := p.AssertLiteral(a.Literal().Not()); err != nil {
		t.Fatalf("AssertLiteral: %v", err)
	}
	if err := p.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if b.State != Inferred || !b.PredeterminedValue {
		t.Fatalf("b should be Inferred true, got state=%v value=%v", b.State, b.PredeterminedValue)
	}
}

func TestOptimizeDetectsContradiction(t *testing.T) {
	p := NewProblem()
	a := p.GetProposition("a")
	b := p.GetProposition("b")
	if _, err := p.Exists(a.Literal(), b.Literal()); err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if err := p.AssertLiteral(a.Literal().Not()); err != nil {
		t.Fatalf("AssertLiteral: %v", err)
	}
	if err := p.AssertLiteral(b.Literal().Not()); err != nil {
		t.Fatalf("AssertLiteral: %v", err)
	}
	err := p.Optimize()
	var contra *ContradictionError
	if !errors.As(err, &contra) {
		t.Fatalf("expected ContradictionError, got %v", err)
	}
}

func TestOptimizeSkipsNonDisjunctionConstraints(t *testing.T) {
	p := NewProblem()
	a := p.GetProposition("a")
	b := p.GetProposition("b")
	c := p.GetProposition("c")
	// min=2,max=2 over three literals is a PseudoBoolean window, not a
	// normal disjunction; unit resolution must not touch it even though
	// two of its three literals become determined.
	if _, err := p.Exactly(2, a.Literal(), b.Literal(), c.Literal()); err != nil {
		t.Fatalf("Exactly: %v", err)
	}
	if err := p.AssertLiteral(a.Literal()); err != nil {
		t.Fatalf("AssertLiteral a: %v", err)
	}
	if err := p.AssertLiteral(b.Literal().Not()); err != nil {
		t.Fatalf("AssertLiteral b: %v", err)
	}
	if err := p.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if c.State != Floating {
		t.Fatalf("c should remain Floating: pseudo-Boolean constraints carry no unit-propagation rule, got %v", c.State)
	}
}

func TestOptimizeIsIdempotent(t *testing.T) {
	p := NewProblem()
	a := p.GetProposition("a")
	b := p.GetProposition("b")
	if _, err := p.Exists(a.Literal(), b.Literal()); err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if err := p.AssertLiteral(a.Literal().Not()); err != nil {
		t.Fatalf("AssertLiteral: %v", err)
	}
	if err := p.Optimize(); err != nil {
		t.Fatalf("first Optimize: %v", err)
	}
	if err := p.Optimize(); err != nil {
		t.Fatalf("second Optimize: %v", err)
	}
	if b.State != Inferred || !b.PredeterminedValue {
		t.Fatalf("b should remain Inferred true across repeated Optimize calls")
	}
}
