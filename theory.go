package catsat

// TheorySolver is the minimal contract a finite-domain or numeric theory
// solver implements in order to refine a Boolean model after the core
// has found one (spec.md §4.7). The Boolean core never inspects a theory
// solver's internal state; it only calls these three methods at the
// documented points in the solve lifecycle.
type TheorySolver interface {
	// Preprocess runs once, the first time a Problem compiles. A
	// non-empty returned message aborts compilation with that message.
	Preprocess(p *Problem) string

	// PropagatePredetermined runs before each solve, seeding theory
	// variables from whichever propositions are already predetermined.
	PropagatePredetermined(s *Solution)

	// Solve runs once the Boolean loop has reached an empty unsat set.
	// It may mutate s's theory-variable values. Returning false rejects
	// the candidate model and triggers a Boolean-search restart; this
	// is not a surfaced error (spec.md §7).
	Solve(s *Solution) bool
}

// theorySolverTag identifies a registered theory solver, e.g. "numeric"
// or "finite-domain". A Problem may have at most one theory solver per
// tag.
type theorySolverTag = string
