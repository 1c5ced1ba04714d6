package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// follow walks the control flow from the start through merges and returns the
// result of the Return reached.
func follow(t *testing.T, g *Graph, env map[*Node]int64) *Node {
	n := g.Start()
	for {
		switch {
		case n.op.IsFixedWithNext():
			n = n.Next()
		case n.is(OpcodeIf):
			n = n.SuccessorFor(evalInt(t, n.Condition(), env) == 1)
		case n.is(OpcodeEnd):
			n = n.Merge()
		case n.is(OpcodeReturn):
			return n.Result()
		default:
			require.FailNow(t, "unexpected control flow", n.Format())
		}
	}
}

// materializedGraph builds
//
//	if (x < y) v = values[0]; else if (x < z) v = values[1]; else v = values[2]
//	if (v == 1) return a; else return b
//
// and returns the graph, the outer If, the If testing v and the parameters.
func materializedGraph(values [3]int64, outer, test BranchProbability) (g *Graph, first, n *Node, params []*Node) {
	g = newTestGraph()
	x, y, z := g.Parameter(0, testInt), g.Parameter(1, testInt), g.Parameter(2, testInt)
	a, b := g.Parameter(3, testInt), g.Parameter(4, testInt)
	first, t1, f1 := testIf(g, g.Start(), g.IntegerLessThan(x, y), outer)
	_, t2, f2 := testIf(g, f1, g.IntegerLessThan(x, z), Unknown)
	merge := g.Merge()
	for _, begin := range []*Node{t1, t2, f2} {
		end := g.End()
		begin.SetNext(end)
		merge.AddForwardEnd(end)
	}
	phi := g.Phi(merge, IntStamp(32, 0, 1),
		g.ConstantInt(32, values[0]), g.ConstantInt(32, values[1]), g.ConstantInt(32, values[2]))
	var ta, fa *Node
	n, ta, fa = testIf(g, merge, g.IntegerEquals(phi, g.ConstantInt(32, 1)), test)
	ta.SetNext(g.Return(a))
	fa.SetNext(g.Return(b))
	return g, first, n, []*Node{x, y, z, a, b}
}

func TestRemoveIntermediateMaterialization(t *testing.T) {
	values := [3]int64{1, 0, 1}
	g, _, n, params := materializedGraph(values, Unknown, Probability(0.6, ProfileProfiled))
	x, y, z, a, b := params[0], params[1], params[2], params[3], params[4]

	require.True(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
	requireVerified(t, g)
	require.False(t, n.IsAlive())
	require.Empty(t, g.NodesOf(OpcodeIntegerEquals))
	require.Empty(t, g.NodesOf(OpcodePhi))
	// The two ends selecting a share a new merge; the one selecting b is
	// linked straight to its successor.
	merges := g.NodesOf(OpcodeMerge)
	require.Len(t, merges, 1)
	require.Equal(t, 2, merges[0].ForwardEndCount())

	for _, v := range [][3]int64{{0, 1, 2}, {1, 0, 2}, {1, 0, -1}, {5, 5, 5}, {-3, -4, 7}} {
		env := map[*Node]int64{x: v[0], y: v[1], z: v[2]}
		var sel int64
		switch {
		case v[0] < v[1]:
			sel = values[0]
		case v[0] < v[2]:
			sel = values[1]
		default:
			sel = values[2]
		}
		want := b
		if sel == 1 {
			want = a
		}
		require.Equal(t, want, follow(t, g, env), "x=%d y=%d z=%d", v[0], v[1], v[2])
	}
}

func TestRemoveIntermediateMaterialization_mergeState(t *testing.T) {
	for _, tc := range []struct {
		name string
		// usesPhi makes the state of the merge record the tested value.
		usesPhi bool
	}{
		{name: "state records the value", usesPhi: true},
		{name: "state ignores the value"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, _, n, params := materializedGraph([3]int64{1, 0, 1}, Unknown, Unknown)
			a := params[3]
			merge := n.Predecessor()
			local := a
			if tc.usesPhi {
				local = g.NodesOf(OpcodePhi)[0]
			}
			merge.SetStateAfter(g.FrameState(3, []*Node{local, a}, nil, nil))

			require.True(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
			requireVerified(t, g)
			merges := g.NodesOf(OpcodeMerge)
			require.Len(t, merges, 1)
			state := merges[0].StateAfter()
			require.NotNil(t, state)
			require.Equal(t, a, state.Input(1))

			phis := g.NodesOf(OpcodePhi)
			if !tc.usesPhi {
				require.Empty(t, phis)
				require.Equal(t, a, state.Input(0))
				return
			}
			// The ends joined again still carry the value to the state.
			require.Len(t, phis, 1)
			require.Equal(t, merges[0], phis[0].Merge())
			require.Equal(t, phis[0], state.Input(0))
			for _, v := range phis[0].Values() {
				require.Equal(t, int64(1), v.AsInt())
			}
		})
	}
}

func TestRemoveIntermediateMaterialization_injectedProfile(t *testing.T) {
	injected := Probability(0.05, ProfileInjected)
	g, first, n, _ := materializedGraph([3]int64{1, 0, 0}, Unknown, injected)

	require.True(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
	requireVerified(t, g)
	// Only the outer true successor selected the true branch, so the outer
	// If inherits the asserted probability.
	require.Equal(t, injected, first.prob)

	// A trusted ancestor profile is left alone.
	profiled := Probability(0.5, ProfileProfiled)
	g, first, n, _ = materializedGraph([3]int64{1, 0, 0}, profiled, injected)
	require.True(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
	require.Equal(t, profiled, first.prob)
}

func TestRemoveIntermediateMaterialization_declined(t *testing.T) {
	t.Run("phi used elsewhere", func(t *testing.T) {
		g, _, n, _ := materializedGraph([3]int64{1, 0, 1}, Unknown, Unknown)
		phi := g.NodesOf(OpcodePhi)[0]
		n.TrueSuccessor().Next().SetInput(0, phi)
		require.False(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
		require.True(t, n.IsAlive())
	})
	t.Run("not constant per end", func(t *testing.T) {
		g, _, n, params := materializedGraph([3]int64{1, 0, 1}, Unknown, Unknown)
		phi := g.NodesOf(OpcodePhi)[0]
		phi.SetInput(2, params[3])
		require.False(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
	})
}
