package catsat

import "sort"

// Solve compiles the problem if necessary, runs unit resolution, and
// searches for a satisfying Boolean assignment with WalkSAT plus
// adaptive noise (spec.md §4.4), handing the candidate model to every
// registered TheorySolver once the Boolean search is done. It uses the
// problem's configured default flip budget (Params.Timeout).
func (p *Problem) Solve() (*Solution, error) {
	return p.SolveWithTimeout(p.Params.Timeout)
}

// SolveWithTimeout is Solve with an explicit flip budget, overriding
// Params.Timeout for this call only.
func (p *Problem) SolveWithTimeout(maxFlips int) (*Solution, error) {
	if err := p.compile(); err != nil {
		return nil, err
	}
	if err := p.Optimize(); err != nil {
		return nil, err
	}
	return p.solveCore(maxFlips)
}

// HighUtilitySolution calls Solve, then spends up to extraFlips
// additional flips searching for a higher-TotalUtility model without
// ever letting the unsat set become non-empty, returning the best model
// found (which may be the first one, if no improving flip was ever
// available). This is the utility-maximizing counterpart of spec.md
// §4.4's HighUtilitySolution.
func (p *Problem) HighUtilitySolution(extraFlips int) (*Solution, error) {
	sol, err := p.Solve()
	if err != nil {
		return nil, err
	}

	unsat := newIndexSet(len(p.constraints))
	trueCount := make([]int, len(p.constraints))
	p.recomputeTrueCounts(sol, trueCount, unsat)

	improvable := newIndexSet(len(p.variables))
	p.recomputeImprovable(sol, improvable)

	best := cloneSolution(sol)

	for i := 0; i < extraFlips && improvable.Len() > 0; i++ {
		v := improvable.RandomElement(p.rng)
		d := p.flipDelta(v, sol, trueCount)
		if d > 0 {
			// Would introduce an unsatisfied constraint; skip this
			// round rather than consume the whole budget on one stuck
			// proposition.
			continue
		}
		p.flip(v, sol, trueCount, unsat)
		p.recomputeImprovable(sol, improvable)
		if unsat.Len() == 0 && sol.TotalUtility > best.TotalUtility {
			best = cloneSolution(sol)
		}
	}

	return best, nil
}

func cloneSolution(s *Solution) *Solution {
	truth := append([]bool(nil), s.Truth...)
	data := make(map[string]interface{}, len(s.TheoryData))
	for k, v := range s.TheoryData {
		data[k] = v
	}
	return &Solution{Problem: s.Problem, Truth: truth, TotalUtility: s.TotalUtility, TheoryData: data}
}

// recomputeImprovable rebuilds the set of non-internal propositions whose
// flip would raise TotalUtility in isolation (ignoring constraints),
// i.e. false propositions with positive utility and true propositions
// with negative utility.
func (p *Problem) recomputeImprovable(sol *Solution, improvable *indexSet) {
	improvable.Clear()
	for _, prop := range p.variables[1:] {
		if prop.Internal {
			continue
		}
		if sol.Truth[prop.Index] {
			if prop.Utility < 0 {
				improvable.Add(prop.Index)
			}
		} else if prop.Utility > 0 {
			improvable.Add(prop.Index)
		}
	}
}

func (p *Problem) sortedTheoryTags() []string {
	tags := make([]string, 0, len(p.theorySolvers))
	for tag := range p.theorySolvers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// solveCore runs the restart loop: randomize an assignment, WalkSAT
// until the unsat set is empty or the flip budget runs out, then hand
// the candidate to every theory solver. A theory solver's rejection
// triggers a fresh restart rather than surfacing as an error (spec.md
// §4.7, §7) — modeled here as a labeled loop rather than an exception,
// since Go has no exceptions to model it with.
func (p *Problem) solveCore(maxFlips int) (*Solution, error) {
	sol := newSolution(p)
	unsat := newIndexSet(len(p.constraints))
	trueCount := make([]int, len(p.constraints))
	lastFlip := make([]int, len(p.constraints))
	for i := range lastFlip {
		lastFlip[i] = absent
	}

	defer func() {
		for _, prop := range p.variables[1:] {
			if prop.State == Preinitialized {
				prop.State = Floating
			}
		}
	}()

	var flips int64
	restarts := 0

restart:
	for {
		p.randomAssignment(sol)
		if p.preinitHook != nil {
			p.preinitHook(p)
			// the hook may have set Preinitialized propositions; fold
			// their values in before the walk begins.
			for _, prop := range p.variables[1:] {
				if prop.State == Preinitialized {
					sol.Truth[prop.Index] = prop.PredeterminedValue
				}
			}
		}
		sol.TotalUtility = 0
		for _, prop := range p.variables[1:] {
			if sol.Truth[prop.Index] {
				sol.TotalUtility += prop.Utility
			}
		}
		for _, tag := range p.sortedTheoryTags() {
			p.theorySolvers[tag].PropagatePredetermined(sol)
		}
		p.recomputeTrueCounts(sol, trueCount, unsat)

		wp := 0.0
		noImprovementStreak := 0

		if !isNoopTracer(p.tracer) {
			p.tracer.Trace(SearchSnapshot{Flip: flips, UnsatCount: unsat.Len(), Noise: wp, TotalUtility: sol.TotalUtility, RestartCount: restarts})
		}

		for unsat.Len() > 0 {
			if flips >= int64(maxFlips) {
				return nil, &TimeoutError{Problem: p}
			}
			ci := unsat.RandomElement(p.rng)
			c := p.constraints[ci]
			beforeUnsat := unsat.Len()

			v := p.chooseFlipVar(c, sol, trueCount, wp, lastFlip[ci])
			lastFlip[ci] = v
			lit := p.flip(v, sol, trueCount, unsat)
			flips++

			if c.Kind == NormalDisjunction {
				if unsat.Len() < beforeUnsat {
					wp -= wp * p.Params.Phi / 2
					noImprovementStreak = 0
				} else {
					noImprovementStreak++
					if float64(noImprovementStreak) > float64(len(p.constraints))/p.Params.Theta {
						wp += (1 - wp) * p.Params.Phi
						noImprovementStreak = 0
					}
				}
			}

			if !isNoopTracer(p.tracer) {
				p.tracer.Trace(SearchSnapshot{Flip: flips, UnsatCount: unsat.Len(), Noise: wp, TotalUtility: sol.TotalUtility, FlippedLit: lit, RestartCount: restarts})
			}
		}

		ok := true
		for _, tag := range p.sortedTheoryTags() {
			if !p.theorySolvers[tag].Solve(sol) {
				ok = false
				break
			}
		}
		if ok {
			break restart
		}
		restarts++
	}

	return sol, nil
}

// randomAssignment draws a fresh starting point: predetermined
// propositions (Fixed/Set/Preinitialized/Inferred) keep their value,
// every Floating proposition is visited in a Fisher-Yates-shuffled order
// and either sampled from its InitialProbability or forced by
// propagateInitialAssignment, unless Params.SkipPropagation is set
// (spec.md §4.4).
func (p *Problem) randomAssignment(sol *Solution) {
	order := make([]int, len(p.variables)-1)
	for i := range order {
		order[i] = i + 1
	}
	p.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, idx := range order {
		prop := p.variables[idx]
		if prop.State != Floating {
			sol.Truth[idx] = prop.PredeterminedValue
		}
	}

	if p.Params.SkipPropagation {
		for _, idx := range order {
			prop := p.variables[idx]
			if prop.State == Floating {
				sol.Truth[idx] = p.rng.Bool(prop.InitialProbability)
			}
		}
	} else {
		p.propagateInitialAssignment(sol, order)
	}
}

// propagateInitialAssignment assigns every Floating proposition in
// order, forcing a value whenever a NormalDisjunction constraint would
// otherwise be left with no way to become satisfied (a lightweight,
// single-pass analogue of the watch-literal BCP the teacher's DPLL
// solver used to prune its search tree, adapted here to bias the
// initial assignment rather than branch over it).
func (p *Problem) propagateInitialAssignment(sol *Solution, order []int) {
	assigned := make([]bool, len(p.variables))
	for _, prop := range p.variables[1:] {
		if prop.State != Floating {
			assigned[prop.Index] = true
		}
	}

	remaining := make([]int, len(p.constraints))
	satisfied := make([]bool, len(p.constraints))
	for ci, c := range p.constraints {
		if c.Kind != NormalDisjunction {
			remaining[ci] = -1
			continue
		}
		remaining[ci] = len(c.Disjuncts)
	}
	for ci, c := range p.constraints {
		if remaining[ci] < 0 {
			continue
		}
		for _, lit := range c.Disjuncts {
			if assigned[lit.Var()] {
				remaining[ci]--
				if sol.Truth[lit.Var()] == lit.Positive() {
					satisfied[ci] = true
				}
			}
		}
	}

	settle := func(idx int, value bool) {
		sol.Truth[idx] = value
		assigned[idx] = true
		prop := p.variables[idx]
		for _, ci := range prop.PositiveClauses {
			if remaining[ci] < 0 || satisfied[ci] {
				continue
			}
			remaining[ci]--
			if value {
				satisfied[ci] = true
			}
		}
		for _, ci := range prop.NegativeClauses {
			if remaining[ci] < 0 || satisfied[ci] {
				continue
			}
			remaining[ci]--
			if !value {
				satisfied[ci] = true
			}
		}
	}

	for _, idx := range order {
		prop := p.variables[idx]
		if prop.State != Floating {
			continue
		}
		forced, forcedValue := false, false
		for _, ci := range prop.PositiveClauses {
			if remaining[ci] == 1 && !satisfied[ci] {
				forced, forcedValue = true, true
				break
			}
		}
		if !forced {
			for _, ci := range prop.NegativeClauses {
				if remaining[ci] == 1 && !satisfied[ci] {
					forced, forcedValue = true, false
					break
				}
			}
		}
		if forced {
			settle(idx, forcedValue)
		} else {
			settle(idx, p.rng.Bool(prop.InitialProbability))
		}
	}
}

// recomputeTrueCounts authoritatively derives each constraint's
// true-disjunct count and the unsat set from sol.Truth directly, rather
// than incrementally, as the baseline the flip loop's incremental
// bookkeeping builds on (spec.md §4.4).
func (p *Problem) recomputeTrueCounts(sol *Solution, trueCount []int, unsat *indexSet) {
	unsat.Clear()
	for ci, c := range p.constraints {
		k := 0
		for _, lit := range c.Disjuncts {
			if sol.IsTrue(lit) {
				k++
			}
		}
		trueCount[ci] = k
		guardTrue := c.Guard != 0 && sol.IsTrue(c.Guard)
		if c.IsEnabled(guardTrue) && !c.IsSatisfied(k, guardTrue) {
			unsat.Add(ci)
		}
	}
}

// chooseFlipVar picks which proposition to flip to address c, an
// unsatisfied constraint. With probability wp it samples uniformly
// among c's disjuncts (the noise move); otherwise it walks c's
// disjuncts in a randomized, full-coverage order (a random start index
// plus a stride that's a random prime greater than len(c.Disjuncts), so
// every disjunct is visited exactly once regardless of array contents —
// spec.md §4.4, §9), skipping tabu (the proposition last flipped while
// repairing this same constraint), returning the first candidate whose
// flip doesn't increase the total unsat count, or the least-bad one
// found if none qualifies. Non-Floating disjuncts are never candidates:
// a predetermined proposition is never flipped (spec.md §8 invariant 5),
// even if it happens to co-occur in an unsatisfied constraint's disjunct
// list.
func (p *Problem) chooseFlipVar(c *Constraint, sol *Solution, trueCount []int, wp float64, tabu int) int {
	if p.rng.Bool(wp) {
		if v, ok := p.randomFloatingDisjunct(c); ok {
			return v
		}
	}

	if c.Kind == Custom && c.Custom != nil {
		if risky, ok := c.Custom.(CustomConstraintWithRisk); ok {
			if v, ok2 := risky.GreedyFlip(sol.Truth, p.rng); ok2 {
				return v
			}
		}
	}

	n := len(c.Disjuncts)
	stride := p.rng.RandomPrimeGreaterThan(n)
	start := p.rng.InRange(n)

	best := absent
	bestDelta := 0
	idx := start
	for i := 0; i < n; i++ {
		v := c.Disjuncts[idx].Var()
		idx = (idx + stride) % n
		if v == tabu || p.variables[v].State != Floating {
			continue
		}
		d := p.flipDelta(v, sol, trueCount)
		if d <= 0 {
			return v
		}
		if best == absent || d < bestDelta {
			bestDelta, best = d, v
		}
	}
	if best == absent {
		if v, ok := p.randomFloatingDisjunct(c); ok {
			return v
		}
		// every disjunct of c is predetermined: c cannot actually be
		// repaired by flipping any of its own literals. This indicates
		// an unsatisfiable combination of assertions that should have
		// been caught at compile/optimize time; fail loudly rather than
		// flip a predetermined proposition.
		panic("catsat: unsatisfied constraint has no Floating disjunct to repair")
	}
	return best
}

// randomFloatingDisjunct returns a uniformly random Floating disjunct's
// variable, retrying a bounded number of times against the constraint's
// own length (so a constraint with only a few non-Floating disjuncts
// doesn't pay an unbounded number of rejections). If every draw hits a
// non-Floating disjunct, it falls back to the first Floating disjunct in
// order, and reports false only when there is none.
func (p *Problem) randomFloatingDisjunct(c *Constraint) (int, bool) {
	n := len(c.Disjuncts)
	for i := 0; i < n; i++ {
		v := c.Disjuncts[p.rng.InRange(n)].Var()
		if p.variables[v].State == Floating {
			return v, true
		}
	}
	for _, lit := range c.Disjuncts {
		if v := lit.Var(); p.variables[v].State == Floating {
			return v, true
		}
	}
	return 0, false
}

// flipDelta reports the net change in the unsat set's size that
// flipping proposition v would cause, summing ThreatDeltaIncreasing/
// ThreatDeltaDecreasing (or, for a guard proposition, the IsEnabled
// transition) across every constraint v participates in.
func (p *Problem) flipDelta(v int, sol *Solution, trueCount []int) int {
	prop := p.variables[v]
	cur := sol.Truth[v]
	delta := 0

	score := func(occ []int, occPositive bool) {
		for _, ci := range occ {
			c := p.constraints[ci]
			guardTrue := c.Guard != 0 && sol.IsTrue(c.Guard)
			if !c.IsEnabled(guardTrue) {
				continue
			}
			k := trueCount[ci]
			if cur == occPositive {
				delta += c.ThreatDeltaDecreasing(k, guardTrue)
			} else {
				delta += c.ThreatDeltaIncreasing(k, guardTrue)
			}
		}
	}
	score(prop.PositiveClauses, true)
	score(prop.NegativeClauses, false)

	for _, ci := range prop.GuardedConstraints {
		c := p.constraints[ci]
		k := trueCount[ci]
		guardBefore := sol.IsTrue(c.Guard)
		guardAfter := !guardBefore
		wasUnsat := c.IsEnabled(guardBefore) && !c.IsSatisfied(k, guardBefore)
		willUnsat := c.IsEnabled(guardAfter) && !c.IsSatisfied(k, guardAfter)
		delta += boolToInt(willUnsat) - boolToInt(wasUnsat)
	}

	return delta
}

// flip toggles proposition v's truth value, updates TotalUtility, each
// affected constraint's true-disjunct count and unsat membership, and
// returns the literal that now holds (v if it became true, its negation
// otherwise) for tracing.
func (p *Problem) flip(v int, sol *Solution, trueCount []int, unsat *indexSet) Literal {
	prop := p.variables[v]
	old := sol.Truth[v]
	newVal := !old
	sol.Truth[v] = newVal
	if newVal {
		sol.TotalUtility += prop.Utility
	} else {
		sol.TotalUtility -= prop.Utility
	}

	update := func(occ []int, occPositive bool) {
		for _, ci := range occ {
			wasTrue := old == occPositive
			isTrue := newVal == occPositive
			if wasTrue == isTrue {
				continue
			}
			c := p.constraints[ci]
			if isTrue {
				trueCount[ci]++
			} else {
				trueCount[ci]--
			}
			guardTrue := c.Guard != 0 && sol.IsTrue(c.Guard)
			if c.IsEnabled(guardTrue) && !c.IsSatisfied(trueCount[ci], guardTrue) {
				unsat.Add(ci)
			} else {
				unsat.Remove(ci)
			}
		}
	}
	update(prop.PositiveClauses, true)
	update(prop.NegativeClauses, false)

	for _, ci := range prop.GuardedConstraints {
		c := p.constraints[ci]
		guardTrue := sol.IsTrue(c.Guard)
		if c.IsEnabled(guardTrue) && !c.IsSatisfied(trueCount[ci], guardTrue) {
			unsat.Add(ci)
		} else {
			unsat.Remove(ci)
		}
	}

	if newVal {
		return prop.Literal()
	}
	return prop.Literal().Not()
}
