package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testObjectType = &Type{Name: "Object"}
	testInt        = IntStampUnrestricted(32)
)

func newTestGraph() *Graph {
	return NewGraph(&Method{Name: "test", VTableIndex: -1})
}

func newTestTool(g *Graph, final bool) *canonicalizer {
	return newCanonicalizer(g, CanonicalizerOptions{FinalCanonicalization: final})
}

// testIf links `if (cond) t else f` after pred and returns the If with its
// begins.
func testIf(g *Graph, pred, cond *Node, p BranchProbability) (n, t, f *Node) {
	t, f = g.Begin(), g.Begin()
	n = g.If(cond, t, f, p)
	pred.SetNext(n)
	return
}

// testDiamond links `if (cond) {} else {}` after pred and returns the If, the
// merge and the two ends.
func testDiamond(g *Graph, pred, cond *Node, p BranchProbability) (n, merge, te, fe *Node) {
	n, t, f := testIf(g, pred, cond, p)
	te, fe = g.End(), g.End()
	t.SetNext(te)
	f.SetNext(fe)
	merge = g.Merge()
	merge.AddForwardEnd(te)
	merge.AddForwardEnd(fe)
	return
}

func requireVerified(t *testing.T, g *Graph) {
	t.Helper()
	if err := Verify(g); err != nil {
		require.FailNow(t, err.Error(), g.Format())
	}
}

// outcomeProbabilities walks the control flow from the start and returns the
// probability of reaching each Return, keyed by its result.
func outcomeProbabilities(t *testing.T, g *Graph) map[*Node]float64 {
	ret := map[*Node]float64{}
	var walk func(n *Node, p float64)
	walk = func(n *Node, p float64) {
		for n.op.IsFixedWithNext() {
			n = n.Next()
		}
		switch {
		case n.is(OpcodeIf):
			walk(n.TrueSuccessor(), p*n.prob.P)
			walk(n.FalseSuccessor(), p*(1-n.prob.P))
		case n.is(OpcodeReturn):
			ret[n.Result()] += p
		default:
			require.FailNow(t, "unexpected control flow", n.Format())
		}
	}
	walk(g.Start(), 1)
	return ret
}

// evalInt evaluates an integer or logic expression over parameters bound in
// env. Logic results are 0 or 1.
func evalInt(t *testing.T, n *Node, env map[*Node]int64) int64 {
	bits := 32
	if n.stamp.IsInt() {
		bits = n.stamp.Bits()
	}
	b := func(v bool) int64 {
		if v {
			return 1
		}
		return 0
	}
	switch n.op {
	case OpcodeParameter:
		v, ok := env[n]
		require.True(t, ok, "unbound %s", n)
		return v
	case OpcodeConstant:
		return n.c
	case OpcodeLogicConstant:
		return b(n.LogicValue())
	case OpcodeAdd:
		return SignExtend(evalInt(t, n.Input(0), env)+evalInt(t, n.Input(1), env), bits)
	case OpcodeSub:
		return SignExtend(evalInt(t, n.Input(0), env)-evalInt(t, n.Input(1), env), bits)
	case OpcodeIntegerEquals, OpcodeIntegerLessThan, OpcodeIntegerBelow:
		x, y := n.Input(0), n.Input(1)
		return b(CompareCondition(n.op).Fold(x.stamp.Bits(), evalInt(t, x, env), evalInt(t, y, env)))
	case OpcodeLogicNegation:
		return 1 - evalInt(t, n.Input(0), env)
	default:
		panic(fmt.Sprintf("cannot evaluate %s", n.Format()))
	}
}
