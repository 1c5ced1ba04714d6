package ir

import (
	"fmt"
	"strings"
)

// InternalError is a violated compiler invariant. It is fatal to the compilation
// of the current graph and never retried.
type InternalError struct {
	Msg   string
	Nodes []NodeID
}

// Error implements error.
func (e *InternalError) Error() string {
	if len(e.Nodes) == 0 {
		return "internal compiler error: " + e.Msg
	}
	ids := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		ids[i] = id.String()
	}
	return fmt.Sprintf("internal compiler error: %s [%s]", e.Msg, strings.Join(ids, ", "))
}

// Fatalf returns an InternalError about the given nodes.
func Fatalf(nodes []*Node, format string, args ...any) *InternalError {
	ids := make([]NodeID, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			ids = append(ids, n.id)
		}
	}
	return &InternalError{Msg: fmt.Sprintf(format, args...), Nodes: ids}
}

// OutcomeKind is the result class of a lowering or simplification attempt.
type OutcomeKind byte

const (
	// Deferred means nothing changed: the rule does not apply or its precondition
	// is not met yet.
	Deferred OutcomeKind = iota
	// Applied means the graph was rewritten.
	Applied
	// Fatal means an invariant was violated; Outcome.Err is set.
	Fatal
)

// String implements fmt.Stringer.
func (k OutcomeKind) String() string {
	switch k {
	case Deferred:
		return "deferred"
	case Applied:
		return "applied"
	case Fatal:
		return "fatal"
	default:
		panic("invalid outcome kind")
	}
}

// Outcome is returned by every lowering and simplification entry point.
type Outcome struct {
	Kind OutcomeKind
	Err  *InternalError
}

var (
	OutcomeApplied  = Outcome{Kind: Applied}
	OutcomeDeferred = Outcome{Kind: Deferred}
)

// FatalOutcome wraps err as a fatal Outcome.
func FatalOutcome(err *InternalError) Outcome {
	return Outcome{Kind: Fatal, Err: err}
}

// AppliedIf returns OutcomeApplied if changed, OutcomeDeferred otherwise.
func AppliedIf(changed bool) Outcome {
	if changed {
		return OutcomeApplied
	}
	return OutcomeDeferred
}
