package catsat

// Optimize performs unit propagation over the problem's NormalDisjunction
// constraints only (spec.md §4.5): PseudoBoolean, ConditionalPseudoBoolean,
// and Custom constraints have no unit-propagation rule and are left for
// the Boolean search to satisfy directly. Optimize compiles the problem
// first if necessary, then runs propagation to a fixed point starting
// from every proposition's current determination state. It may be called
// more than once; each call re-derives Inferred propositions from
// scratch, so a proposition Inferred by an earlier call that's since
// become irrelevant (e.g. because a Set override superseded it) isn't
// stuck with a stale value.
func (p *Problem) Optimize() error {
	if err := p.compile(); err != nil {
		return err
	}

	for _, prop := range p.variables[1:] {
		if prop.State == Inferred {
			prop.State = Floating
		}
	}

	satisfied := make([]bool, len(p.constraints))
	var queue []int

	determinedValue := func(prop *Proposition) (value bool, known bool) {
		switch prop.State {
		case Fixed, Set, Preinitialized, Inferred:
			return prop.PredeterminedValue, true
		default:
			return false, false
		}
	}

	evalConstraint := func(ci int) error {
		c := p.constraints[ci]
		if c.Kind != NormalDisjunction || satisfied[ci] {
			return nil
		}
		count := 0
		var lastFloating Literal
		for _, lit := range c.Disjuncts {
			prop := p.variables[lit.Var()]
			val, known := determinedValue(prop)
			if known {
				if val == lit.Positive() {
					satisfied[ci] = true
					return nil
				}
				continue
			}
			count++
			lastFloating = lit
		}
		switch count {
		case 0:
			return &ContradictionError{Problem: p, Constraint: c, Reason: "unit resolution: every disjunct is false"}
		case 1:
			prop := p.variables[lastFloating.Var()]
			if prop.State == Floating {
				prop.State = Inferred
				prop.PredeterminedValue = lastFloating.Positive()
				queue = append(queue, prop.Index)
			}
		}
		return nil
	}

	for i := range p.constraints {
		if err := evalConstraint(i); err != nil {
			return err
		}
	}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		prop := p.variables[idx]
		for _, ci := range prop.PositiveClauses {
			if err := evalConstraint(ci); err != nil {
				return err
			}
		}
		for _, ci := range prop.NegativeClauses {
			if err := evalConstraint(ci); err != nil {
				return err
			}
		}
	}

	p.recomputeFloating()
	return nil
}
