package catsat

import (
	"fmt"
	"sort"
)

// SearchParameters are the tunable constants of the WalkSAT-with-
// adaptive-noise search (spec.md §4.4). They're plain struct fields —
// no file-based config format is introduced, matching the teacher's own
// practice of plumbing tunables as flags/fields rather than a config
// file.
type SearchParameters struct {
	// Theta and Phi are the adaptive-noise constants. They apply only to
	// flips made to repair a NormalDisjunction constraint: once more than
	// len(constraints)/Theta such flips in a row fail to shrink the
	// unsat set, noise rises by a Phi fraction of the remaining distance
	// to 1; every such flip that shrinks the unsat set makes noise fall
	// by a Phi/2 fraction.
	Theta float64
	Phi   float64
	// Timeout is the default flip budget handed to Solve when the
	// caller doesn't override it.
	Timeout int
	// SkipPropagation bypasses the initial-assignment propagation loop
	// described in spec.md §4.4.
	SkipPropagation bool
}

// DefaultSearchParameters returns the constants named in spec.md §4.4.
func DefaultSearchParameters() SearchParameters {
	return SearchParameters{Theta: 3, Phi: 0.2, Timeout: 100_000}
}

// ruleInstance is one `head <= body` justification accepted by
// AssertRule, pending expansion into clauses at compile time.
type ruleInstance struct {
	head Literal
	body []Literal
}

// Problem owns a set of propositions and constraints, performs
// structural de-duplication of constraints, holds references to theory
// solvers, and exposes assertion, optimization, and solve entry points
// (spec.md §3-§4).
type Problem struct {
	variables []*Proposition // index 0 is a sentinel, never solved over
	nameIndex map[string]int

	constraints    []*Constraint
	constraintHash map[uint64][]int

	theorySolvers map[theorySolverTag]TheorySolver

	rules []ruleInstance

	compiled bool

	Params SearchParameters

	rng    *randomSource
	tracer Tracer

	floating      []int
	floatingDirty bool

	preinitHook func(*Problem)
}

// NewProblem returns an empty, uncompiled Problem with default search
// parameters and a clock-seeded random source.
func NewProblem() *Problem {
	p := &Problem{
		nameIndex:      make(map[string]int),
		constraintHash: make(map[uint64][]int),
		theorySolvers:  make(map[theorySolverTag]TheorySolver),
		Params:         DefaultSearchParameters(),
		rng:            newRandomSource(),
		tracer:         NoopTracer{},
	}
	p.variables = append(p.variables, &Proposition{Index: 0, Name: "<sentinel>", Internal: true})
	return p
}

// SetSeed and SetSeedFromClock control this Problem's private random
// source (spec.md §6); each Problem has its own generator so that
// concurrently-solved problems never share mutable state (spec.md §5).
func (p *Problem) SetSeed(seed uint32)  { p.rng.SetSeed(seed) }
func (p *Problem) SetSeedFromClock()    { p.rng.SetSeedFromClock() }

// SetTracer installs a Tracer to receive per-flip search introspection.
// A nil Tracer restores NoopTracer.
func (p *Problem) SetTracer(t Tracer) {
	if t == nil {
		t = NoopTracer{}
	}
	p.tracer = t
}

// SetInitializationHook installs a callback invoked at the start of each
// Boolean search attempt of a Solve (once per solve, and once more for
// every restart after a theory solver rejects a model), after the
// starting assignment has been drawn and before the first flip.
// Preinitialized determinations from the previous solve have already
// reverted to Floating by then. The callback typically calls
// SetPreinitialized on a handful of propositions to bias or pin one
// solve's starting point; their values overwrite the drawn assignment.
func (p *Problem) SetInitializationHook(f func(*Problem)) { p.preinitHook = f }

// RegisterTheorySolver attaches a TheorySolver under tag. At most one
// theory solver may be registered per tag. Register theory solvers
// before the first Solve call; Preprocess runs once, at first compile.
func (p *Problem) RegisterTheorySolver(tag string, t TheorySolver) {
	p.theorySolvers[tag] = t
}

// GetProposition interns name, returning the same *Proposition on every
// call with an equal name.
func (p *Problem) GetProposition(name string) *Proposition {
	if idx, ok := p.nameIndex[name]; ok {
		return p.variables[idx]
	}
	idx := len(p.variables)
	prop := &Proposition{Index: idx, Name: name, InitialProbability: 0.5}
	p.variables = append(p.variables, prop)
	p.nameIndex[name] = idx
	p.floatingDirty = true
	return prop
}

// GetPropositionCall interns a predicate-style name built from functor
// applied to args, e.g. GetPropositionCall("At", 3, 5) interns a single
// proposition for "At[3 5]" regardless of how many times it's requested.
// This stands in for the source's call-interning trie: a map keyed by
// the canonical rendering is simpler and, for the call shapes this
// engine's callers produce (small fixed-arity predicates), no slower in
// practice.
func (p *Problem) GetPropositionCall(functor string, args ...interface{}) *Proposition {
	name := functor
	if len(args) > 0 {
		name = fmt.Sprintf("%s%v", functor, args)
	}
	return p.GetProposition(name)
}

// SetProposition gives prop a user override, persisting until
// ResetProposition is called. It's an error to Set a Fixed proposition
// to a conflicting value.
func (p *Problem) SetProposition(prop *Proposition, value bool) error {
	if prop.State == Fixed {
		if prop.PredeterminedValue != value {
			return &ContradictionError{Problem: p, Proposition: prop, Reason: "attempt to override a Fixed proposition"}
		}
		return nil
	}
	prop.State = Set
	prop.PredeterminedValue = value
	p.floatingDirty = true
	return nil
}

// ResetProposition restores prop to Floating, undoing a prior
// SetProposition. Fixed propositions are immutable and are left alone.
func (p *Problem) ResetProposition(prop *Proposition) {
	if prop.State == Fixed {
		return
	}
	prop.State = Floating
	p.floatingDirty = true
}

// SetPreinitialized gives prop an initial value for exactly one solve;
// it reverts to Floating immediately after that solve completes
// (spec.md §3). Called from an initialization hook installed with
// SetInitializationHook.
func (p *Problem) SetPreinitialized(prop *Proposition, value bool) {
	prop.State = Preinitialized
	prop.PredeterminedValue = value
}

func (p *Problem) fixProposition(prop *Proposition, val bool, reason string) error {
	if prop.State == Fixed {
		if prop.PredeterminedValue != val {
			return &ContradictionError{Problem: p, Proposition: prop, Reason: reason + ": conflicts with a previously fixed value"}
		}
		return nil
	}
	prop.State = Fixed
	prop.PredeterminedValue = val
	p.floatingDirty = true
	return nil
}

// AssertLiteral records lit as permanently true, fixing its proposition.
// Asserting a literal that contradicts an already-Fixed proposition
// raises ContradictionError at this call, not later at solve time
// (spec.md §8 Boundaries).
func (p *Problem) AssertLiteral(lit Literal) error {
	if lit == 0 {
		return &InvalidArgumentError{Message: "literal index 0 is not valid"}
	}
	if lit == LitTrue {
		return nil
	}
	if lit == LitFalse {
		return &ContradictionError{Problem: p, Reason: "asserted literal False"}
	}
	prop := p.variables[lit.Var()]
	return p.fixProposition(prop, lit.Positive(), "asserted literal")
}

// assertClause is the internal building block for implication/
// biconditional/rule compilation: it's a normal disjunction requiring at
// least one of lits to be true.
func (p *Problem) assertClause(lits ...Literal) error {
	_, err := p.Quantify(1, Unbounded, lits)
	return err
}

// AssertImplication asserts antecedent => consequent, i.e. the clause
// (¬antecedent ∨ consequent).
func (p *Problem) AssertImplication(antecedent, consequent Literal) error {
	return p.assertClause(antecedent.Not(), consequent)
}

// AssertBiconditional asserts a <=> b as two implications.
func (p *Problem) AssertBiconditional(a, b Literal) error {
	if err := p.AssertImplication(a, b); err != nil {
		return err
	}
	return p.AssertImplication(b, a)
}

// AssertRule records one justification `head <= body` for head. Calling
// AssertRule more than once for the same head accumulates multiple
// justifications (head becomes true if any one of them holds); a head
// that accumulates zero justifications by the time the problem compiles
// is forced false (the completion semantics of spec.md §4.3). head must
// be a positive literal.
func (p *Problem) AssertRule(head Literal, body ...Literal) error {
	if !head.Positive() {
		return &InvalidArgumentError{Message: "rule head must be a positive literal"}
	}
	p.rules = append(p.rules, ruleInstance{head: head, body: append([]Literal(nil), body...)})
	p.compiled = false
	return nil
}

// Quantify asserts that between min and max (inclusive) of literals are
// true. max=Unbounded (equivalently max=0, the historical spelling; see
// DESIGN.md) means no upper bound beyond len(literals). Constant
// literals (LitTrue/LitFalse) are folded in; duplicate literals are
// collapsed to one disjunct. When the window is already decided by the
// constant literals alone, Quantify forces the remaining literals
// true/false directly and returns a nil Constraint rather than
// registering one.
func (p *Problem) Quantify(min, max int, literals []Literal) (*Constraint, error) {
	max0 := max
	if max0 == Unbounded {
		max0 = len(literals)
	}
	if min > max0 {
		return nil, &InvalidArgumentError{Message: fmt.Sprintf("min %d > effective max %d", min, max0)}
	}
	for _, l := range literals {
		if l == 0 {
			return nil, &InvalidArgumentError{Message: "literal index 0 is not valid"}
		}
	}

	constTrue := 0
	seen := make(map[Literal]bool, len(literals))
	var remaining []Literal
	for _, l := range literals {
		switch l {
		case LitTrue:
			constTrue++
		case LitFalse:
			// contributes nothing; dropped
		default:
			if !seen[l] {
				seen[l] = true
				remaining = append(remaining, l)
			}
		}
	}

	if constTrue > max0 {
		return nil, &ContradictionError{Problem: p, Reason: "quantification's constant-true literals already exceed max"}
	}
	if min-constTrue > len(remaining) {
		return nil, &ContradictionError{Problem: p, Reason: "quantification cannot reach min even with every remaining literal true"}
	}

	if max0 == constTrue {
		for _, l := range remaining {
			if err := p.AssertLiteral(l.Not()); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	if min-constTrue == len(remaining) {
		for _, l := range remaining {
			if err := p.AssertLiteral(l); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	adjMin := min - constTrue
	if adjMin < 0 {
		adjMin = 0
	}
	adjMax := max0 - constTrue

	kind := PseudoBoolean
	if adjMin == 1 && adjMax == len(remaining) {
		kind = NormalDisjunction
	}
	return p.registerConstraint(kind, adjMin, adjMax, 0, remaining), nil
}

// QuantifyConditional is Quantify's conditional counterpart: the
// resulting constraint is satisfied unconditionally whenever guard is
// true, and otherwise behaves exactly like Quantify(min, max, literals)
// (spec.md §3's ConditionalPseudoBoolean kind).
func (p *Problem) QuantifyConditional(guard Literal, min, max int, literals []Literal) (*Constraint, error) {
	if guard == 0 {
		return nil, &InvalidArgumentError{Message: "literal index 0 is not valid"}
	}
	max0 := max
	if max0 == Unbounded {
		max0 = len(literals)
	}
	if min > max0 {
		return nil, &InvalidArgumentError{Message: fmt.Sprintf("min %d > effective max %d", min, max0)}
	}
	constTrue := 0
	seen := make(map[Literal]bool, len(literals))
	var remaining []Literal
	for _, l := range literals {
		if l == 0 {
			return nil, &InvalidArgumentError{Message: "literal index 0 is not valid"}
		}
		if l == LitTrue {
			constTrue++
			continue
		}
		if l == LitFalse {
			continue // constant folding for a conditional window is rare enough not to warrant the full short-circuit treatment
		}
		if !seen[l] {
			seen[l] = true
			remaining = append(remaining, l)
		}
	}
	adjMin := min - constTrue
	if adjMin < 0 {
		adjMin = 0
	}
	return p.registerConstraint(ConditionalPseudoBoolean, adjMin, max0-constTrue, guard, remaining), nil
}

// Inconsistent asserts that it's impossible for all of literals to be
// true simultaneously; equivalent to Quantify(0, 0, negated literals)
// after deduplication (spec.md §4.3).
func (p *Problem) Inconsistent(literals ...Literal) error {
	neg := make([]Literal, len(literals))
	for i, l := range literals {
		neg[i] = l.Not()
	}
	_, err := p.Quantify(0, 0, neg)
	return err
}

// All asserts every one of literals true.
func (p *Problem) All(literals ...Literal) error {
	for _, l := range literals {
		if err := p.AssertLiteral(l); err != nil {
			return err
		}
	}
	return nil
}

// Exists asserts at least one of literals is true.
func (p *Problem) Exists(literals ...Literal) (*Constraint, error) {
	return p.Quantify(1, Unbounded, literals)
}

// Unique asserts exactly one of literals is true.
func (p *Problem) Unique(literals ...Literal) (*Constraint, error) {
	return p.Quantify(1, 1, literals)
}

// Exactly asserts exactly n of literals are true.
func (p *Problem) Exactly(n int, literals ...Literal) (*Constraint, error) {
	if n == 0 {
		return p.AtMostN(0, literals...)
	}
	return p.Quantify(n, n, literals)
}

// AtMostN asserts at most n of literals are true.
func (p *Problem) AtMostN(n int, literals ...Literal) (*Constraint, error) {
	if n == 0 {
		// max=0 would mean unbounded to Quantify; require every negation instead.
		neg := make([]Literal, len(literals))
		for i, l := range literals {
			neg[i] = l.Not()
		}
		return p.Quantify(len(neg), len(neg), neg)
	}
	return p.Quantify(0, n, literals)
}

// AtLeastN asserts at least n of literals are true.
func (p *Problem) AtLeastN(n int, literals ...Literal) (*Constraint, error) {
	return p.Quantify(n, Unbounded, literals)
}

// registerConstraint computes c's hash, returns an existing structurally
// equal constraint if one is already registered (silent de-dup per
// spec.md §4.3), or appends c and pushes its index into each disjunct's
// occurrence list.
func (p *Problem) registerConstraint(kind ConstraintKind, min, max int, guard Literal, disjuncts []Literal) *Constraint {
	h := computeHash(disjuncts, kind, min, max, guard)
	for _, idx := range p.constraintHash[h] {
		if p.constraints[idx].structurallyEqual(kind, min, max, guard, disjuncts) {
			return p.constraints[idx]
		}
	}
	c := &Constraint{
		Disjuncts:   disjuncts,
		Index:       len(p.constraints),
		Hash:        h,
		Kind:        kind,
		MinMinusOne: min - 1,
		MaxPlusOne:  max + 1,
		Guard:       guard,
	}
	p.constraints = append(p.constraints, c)
	p.constraintHash[h] = append(p.constraintHash[h], c.Index)
	for _, l := range disjuncts {
		prop := p.variables[l.Var()]
		if l.Positive() {
			prop.PositiveClauses = append(prop.PositiveClauses, c.Index)
		} else {
			prop.NegativeClauses = append(prop.NegativeClauses, c.Index)
		}
	}
	if guard != 0 {
		gp := p.variables[guard.Var()]
		gp.GuardedConstraints = append(gp.GuardedConstraints, c.Index)
	}
	return c
}

// recomputeFloating rebuilds the cached list of Floating proposition
// indices. Nothing else reads the list: the solver's initial-assignment
// pass checks each proposition's State directly.
func (p *Problem) recomputeFloating() {
	p.floating = p.floating[:0]
	for _, prop := range p.variables[1:] {
		if prop.State == Floating {
			p.floating = append(p.floating, prop.Index)
		}
	}
	p.floatingDirty = false
}

// compile expands pending rules into constraints, checks tightness, and
// runs each theory solver's Preprocess hook. It's idempotent: once
// compiled is true, subsequent calls are no-ops (spec.md §3, §4.6).
func (p *Problem) compile() error {
	if p.compiled {
		return nil
	}
	if err := p.compileRules(); err != nil {
		return err
	}
	if err := p.checkTightness(); err != nil {
		return err
	}
	tags := make([]string, 0, len(p.theorySolvers))
	for tag := range p.theorySolvers {
		tags = append(tags, tag)
	}
	sort.Strings(tags) // deterministic preprocessing order
	for _, tag := range tags {
		if msg := p.theorySolvers[tag].Preprocess(p); msg != "" {
			return &InvalidArgumentError{Message: fmt.Sprintf("theory solver %q rejected the problem: %s", tag, msg)}
		}
	}
	p.compiled = true
	return nil
}

// compileRules expands every pending AssertRule into clauses implementing
// completion semantics: for each head, an auxiliary literal per rule body
// (or the body literal itself, if the body is a single literal) implies
// the head, each auxiliary is equivalent to the conjunction of its body,
// and the head implies the disjunction of its auxiliaries. A head that
// was never the target of AssertRule is untouched; a head that was the
// target of AssertRule but accumulated zero justifications by compile
// time is forced false.
func (p *Problem) compileRules() error {
	if len(p.rules) == 0 {
		return nil
	}
	groups := make(map[int][]ruleInstance)
	var order []int
	for _, r := range p.rules {
		v := r.head.Var()
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], r)
	}
	sort.Ints(order)
	for _, v := range order {
		headProp := p.variables[v]
		headLit := Literal(v)
		var auxLits []Literal
		for i, r := range groups[v] {
			var auxLit Literal
			if len(r.body) == 1 {
				auxLit = r.body[0]
			} else {
				aux := p.GetProposition(fmt.Sprintf("%s$rule%d", headProp.Name, i))
				aux.Internal = true
				auxLit = aux.Literal()
				for _, b := range r.body {
					if err := p.assertClause(auxLit.Not(), b); err != nil {
						return err
					}
				}
				negBody := make([]Literal, len(r.body)+1)
				for j, b := range r.body {
					negBody[j] = b.Not()
				}
				negBody[len(r.body)] = auxLit
				if err := p.assertClause(negBody...); err != nil {
					return err
				}
			}
			if err := p.assertClause(auxLit.Not(), headLit); err != nil {
				return err
			}
			auxLits = append(auxLits, auxLit)
			for _, b := range r.body {
				if b.Positive() && b != LitTrue {
					headProp.dependsOn = append(headProp.dependsOn, b.Var())
				}
			}
		}
		compLits := make([]Literal, len(auxLits)+1)
		compLits[0] = headLit.Not()
		copy(compLits[1:], auxLits)
		if err := p.assertClause(compLits...); err != nil {
			return err
		}
		headProp.hasRules = true
	}
	return nil
}

// checkTightness performs a DFS over the positive-dependency graph built
// by compileRules, using a tri-color walk (white/gray/black) to detect a
// cycle (spec.md §4.3).
func (p *Problem) checkTightness() error {
	for _, prop := range p.variables[1:] {
		if prop.hasRules && prop.walkColor == 0 {
			if cyc := p.dfsTightness(prop); cyc != nil {
				for _, reset := range p.variables[1:] {
					reset.walkColor = 0
				}
				return &NonTightProgramError{Problem: p, Proposition: cyc}
			}
		}
	}
	for _, prop := range p.variables[1:] {
		prop.walkColor = 0
	}
	return nil
}

func (p *Problem) dfsTightness(prop *Proposition) *Proposition {
	prop.walkColor = 1 // gray: on the current DFS stack
	for _, depIdx := range prop.dependsOn {
		dep := p.variables[depIdx]
		if dep.walkColor == 1 {
			return dep
		}
		if dep.walkColor == 0 && dep.hasRules {
			if cyc := p.dfsTightness(dep); cyc != nil {
				return cyc
			}
		}
	}
	prop.walkColor = 2 // black: fully explored, acyclic from here
	return nil
}
