package catsat

import (
	"fmt"
	"io"

	"github.com/kr/pretty"
)

// SearchSnapshot is the state handed to a Tracer once per main-loop
// iteration of the Boolean solver.
type SearchSnapshot struct {
	Flip          int64   // total flips taken so far, across restarts
	UnsatCount    int     // len(unsat) after this flip
	Noise         float64 // current adaptive-noise probability wp
	TotalUtility  float64
	FlippedLit    Literal // the literal just flipped, 0 on the snapshot taken before the first flip
	RestartCount  int
}

// Tracer receives search introspection events. It is modeled on the
// operator-lifecycle-manager resolver's Tracer/SearchPosition pair
// (pkg/controller/registry/resolver/solver/tracer.go): a narrow
// interface rather than a logging-framework dependency, so installing
// one never forces a particular logging stack on a caller. The default
// NoopTracer costs nothing; the solver doesn't even build a
// SearchSnapshot unless a non-nil, non-Noop tracer is installed.
type Tracer interface {
	Trace(snap SearchSnapshot)
}

// NoopTracer discards every event. It is the Problem's default tracer.
type NoopTracer struct{}

func (NoopTracer) Trace(SearchSnapshot) {}

// PrettyTracer formats each snapshot with kr/pretty and writes it to
// Writer. It replaces the teacher's unconditional, ANSI-escaping debug
// print (saturday.go's pretty.Println(sv.unassigned) inside bcp) with an
// opt-in mechanism: nothing is written unless a PrettyTracer is
// explicitly installed via Problem.SetTracer.
type PrettyTracer struct {
	Writer io.Writer
}

func (t PrettyTracer) Trace(snap SearchSnapshot) {
	fmt.Fprintf(t.Writer, "flip %d: %# v\n", snap.Flip, pretty.Formatter(snap))
}

func isNoopTracer(t Tracer) bool {
	_, ok := t.(NoopTracer)
	return ok
}
