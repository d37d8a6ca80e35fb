// Package catsat implements a stochastic satisfiability engine specialized
// for generalized cardinality constraints, coupling a Boolean WalkSAT core
// with optional finite-domain/numeric theory solvers.
//
// The package is aimed at procedural content generation and configuration:
// small-to-medium problems that must be solved many times per second, often
// against a partial assignment supplied by the caller. It is an incomplete
// solver — it can report that it found a model, or that it ran out of
// flips trying, but it never proves unsatisfiability.
package catsat

import "fmt"

// Literal is a signed proposition index. A positive value means the
// proposition is asserted true; a negative value means it is asserted
// false. Index 0 is never a valid literal for an ordinary proposition;
// LitTrue and LitFalse are reserved sentinel literals denoting the
// constant propositions True and False.
type Literal int32

// LitTrue and LitFalse are the literals for the constant propositions
// True and False. They are collapsed out of constraints during
// construction (see Problem.Quantify) and never appear in a compiled
// constraint's disjunct list.
const (
	LitTrue  Literal = 1<<31 - 1
	LitFalse Literal = -(1<<31 - 1)
)

// Unbounded is the preferred spelling for an unbounded cardinality
// maximum passed to Problem.Quantify. The legacy sentinel max=0 (meaning
// "no upper bound") is still accepted and behaves identically; see
// DESIGN.md for the rationale.
const Unbounded = 0

// Not returns the negation of a literal. Not is its own inverse.
func (l Literal) Not() Literal {
	switch l {
	case LitTrue:
		return LitFalse
	case LitFalse:
		return LitTrue
	default:
		return -l
	}
}

// Var returns the proposition index a literal refers to, ignoring sign.
// It panics if called on LitTrue/LitFalse, which have no proposition
// index.
func (l Literal) Var() int {
	if l == LitTrue || l == LitFalse {
		panic("catsat: Var() called on a constant literal")
	}
	if l < 0 {
		return int(-l)
	}
	return int(l)
}

// Positive reports whether the literal asserts its proposition true
// (rather than false).
func (l Literal) Positive() bool { return l > 0 || l == LitTrue }

func (l Literal) String() string {
	switch l {
	case LitTrue:
		return "true"
	case LitFalse:
		return "false"
	default:
		return fmt.Sprintf("%d", int32(l))
	}
}
