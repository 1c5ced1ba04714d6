package hotspot

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

// cachedExceptions are the preallocated exceptions without stack trace thrown
// from hot code when OmitHotExceptionStacktrace is set.
var cachedExceptions = map[ir.BytecodeExceptionKind]*ir.Type{
	ir.ExceptionNullPointer:          {Name: "java.lang.NullPointerException"},
	ir.ExceptionOutOfBounds:          {Name: "java.lang.ArrayIndexOutOfBoundsException"},
	ir.ExceptionClassCast:            {Name: "java.lang.ClassCastException"},
	ir.ExceptionArrayStore:           {Name: "java.lang.ArrayStoreException"},
	ir.ExceptionDivisionByZero:       {Name: "java.lang.ArithmeticException"},
	ir.ExceptionIntegerExactOverflow: {Name: "java.lang.ArithmeticException"},
	ir.ExceptionLongExactOverflow:    {Name: "java.lang.ArithmeticException"},
	ir.ExceptionNegativeArraySize:    {Name: "java.lang.NegativeArraySizeException"},
}

func (p *Provider) lowerBytecodeException(n *ir.Node, tool lowering.Tool) ir.Outcome {
	g := tool.Graph()
	kind := n.ExceptionKind()
	if p.Options().OmitHotExceptionStacktrace {
		t, ok := cachedExceptions[kind]
		if !ok {
			return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "no cached exception for %s", kind))
		}
		g.ReplaceFixedWithFloating(n, g.ConstantObject(t, "cached "+kind.String()))
		return ir.OutcomeApplied
	}

	desc := jitapi.BytecodeExceptionCall(kind)
	args := n.Inputs()
	if kind == ir.ExceptionClassCast && len(args) == 2 {
		// The runtime wants the hub of the failed type, not its mirror.
		args[1] = g.ClassGetHub(args[1], p.wordStamp(false))
	}
	if len(args) != desc.Args {
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "%s takes %d arguments but got %d", desc, desc.Args, len(args)))
	}
	call := g.ForeignCall(desc, n.Stamp(), args...)
	call.SetStateDuring(n.StateAfter())
	call.SetStateAfter(n.StateAfter())
	g.ReplaceFixedWithFixed(n, call)
	return ir.OutcomeApplied
}
