package catsat

// Solution is a complete truth assignment found by Problem.Solve, plus
// whatever theory-specific data a registered TheorySolver attached to it
// (spec.md §3, §4.6). Query it with IsTrue/Count/Quantify rather than
// indexing Truth directly; Truth is exported for a TheorySolver's own
// use, not as the primary API.
type Solution struct {
	Problem *Problem

	// Truth is indexed by proposition index; Truth[0] is meaningless
	// (index 0 is the sentinel variable).
	Truth []bool

	TotalUtility float64

	// TheoryData lets a registered TheorySolver stash its own per-solve
	// state (e.g. a finite-domain variable's chosen value), keyed by the
	// same tag it was registered under.
	TheoryData map[string]interface{}
}

func newSolution(p *Problem) *Solution {
	return &Solution{
		Problem:    p,
		Truth:      make([]bool, len(p.variables)),
		TheoryData: make(map[string]interface{}),
	}
}

// IsTrue reports whether lit holds in this solution.
func (s *Solution) IsTrue(lit Literal) bool {
	switch lit {
	case LitTrue:
		return true
	case LitFalse:
		return false
	default:
		return s.Truth[lit.Var()] == lit.Positive()
	}
}

// PropositionTrue reports whether prop is true in this solution.
func (s *Solution) PropositionTrue(prop *Proposition) bool {
	switch prop {
	case True:
		return true
	case False:
		return false
	default:
		return s.Truth[prop.Index]
	}
}

// Count returns how many of literals are true in this solution.
func (s *Solution) Count(literals ...Literal) int {
	n := 0
	for _, l := range literals {
		if s.IsTrue(l) {
			n++
		}
	}
	return n
}

// Quantify reports whether between min and max (inclusive) of literals
// are true in this solution; max=Unbounded means no upper bound.
func (s *Solution) Quantify(min, max int, literals []Literal) bool {
	k := s.Count(literals...)
	if k < min {
		return false
	}
	if max != Unbounded && k > max {
		return false
	}
	return true
}

// All reports whether every one of literals is true.
func (s *Solution) All(literals ...Literal) bool {
	return s.Quantify(len(literals), len(literals), literals)
}

// Exists reports whether at least one of literals is true.
func (s *Solution) Exists(literals ...Literal) bool {
	return s.Quantify(1, Unbounded, literals)
}

// Unique reports whether exactly one of literals is true.
func (s *Solution) Unique(literals ...Literal) bool {
	return s.Quantify(1, 1, literals)
}

// Exactly reports whether exactly n of literals are true.
func (s *Solution) Exactly(n int, literals ...Literal) bool {
	if n == 0 {
		return s.Count(literals...) == 0
	}
	return s.Quantify(n, n, literals)
}

// AtMostN reports whether at most n of literals are true.
func (s *Solution) AtMostN(n int, literals ...Literal) bool {
	if n == 0 {
		return s.Count(literals...) == 0
	}
	return s.Quantify(0, n, literals)
}

// AtLeastN reports whether at least n of literals are true.
func (s *Solution) AtLeastN(n int, literals ...Literal) bool {
	return s.Quantify(n, Unbounded, literals)
}

// Model returns every non-internal proposition true in this solution, in
// ascending index order.
func (s *Solution) Model() []*Proposition {
	var out []*Proposition
	for _, prop := range s.Problem.variables[1:] {
		if !prop.Internal && s.Truth[prop.Index] {
			out = append(out, prop)
		}
	}
	return out
}
