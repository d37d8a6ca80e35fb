package catsat

import "fmt"

// ContradictionError is raised when unit resolution derives false, or a
// caller attempts to override a Fixed proposition with a conflicting
// value (spec.md §7).
type ContradictionError struct {
	Problem     *Problem
	Constraint  *Constraint
	Proposition *Proposition
	Reason      string
}

func (e *ContradictionError) Error() string {
	switch {
	case e.Constraint != nil:
		return fmt.Sprintf("catsat: contradiction at constraint %d: %s", e.Constraint.Index, e.Reason)
	case e.Proposition != nil:
		return fmt.Sprintf("catsat: contradiction at proposition %q: %s", e.Proposition.Name, e.Reason)
	default:
		return fmt.Sprintf("catsat: contradiction: %s", e.Reason)
	}
}

// NonTightProgramError is raised when rule completion's dependency DFS
// finds a positive cycle (spec.md §4.3, §7).
type NonTightProgramError struct {
	Problem     *Problem
	Proposition *Proposition
}

func (e *NonTightProgramError) Error() string {
	return fmt.Sprintf("catsat: non-tight program: proposition %q participates in a positive dependency cycle", e.Proposition.Name)
}

// TimeoutError is raised when the Boolean solver exhausts its flip
// budget without reaching an empty unsat set (spec.md §7).
type TimeoutError struct {
	Problem *Problem
}

func (e *TimeoutError) Error() string {
	return "catsat: solver exhausted its flip budget without finding a model"
}

// InvalidArgumentError covers malformed caller input: min > max
// quantification, a zero literal, or similarly shaped mistakes
// (spec.md §7).
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return "catsat: invalid argument: " + e.Message
}
